package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"DetBlur/profile"
)

type Status struct {
	ID      string  `json:"id"`
	Backend string  `json:"backend"`
	FPS     float64 `json:"fps"`
	Frames  int64   `json:"frames"`
	Viewers int     `json:"viewers"`
}

type Options struct {
	Hub       *Hub
	Status    func() Status
	Detectors []profile.Profile
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	Log     *zap.Logger
}

type Server struct {
	router *gin.Engine
	log    *zap.Logger
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/api/status", func(c *gin.Context) {
		var st Status
		if opts.Status != nil {
			st = opts.Status()
		}
		if opts.Hub != nil {
			st.Viewers = opts.Hub.Viewers()
		}
		c.JSON(http.StatusOK, gin.H{"data": st})
	})
	r.GET("/api/detectors", func(c *gin.Context) {
		retData := make([]map[string]any, 0, len(opts.Detectors))
		for _, p := range opts.Detectors {
			retData = append(retData, map[string]any{
				"name":       p.Name,
				"layout":     p.Layout,
				"confidence": p.Confidence,
				"nms":        p.NMS,
				"classes":    p.Classes,
				"privacy":    p.Privacy,
			})
		}
		c.JSON(http.StatusOK, gin.H{"data": retData})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.Hub != nil {
		r.GET("/ws/stream", opts.Hub.HandleWS)
	}
	return &Server{router: r, log: log}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on port until ctx is done.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("HTTP server listening", zap.Int("port", port))
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
