package Adhoc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TimeOutSeconds = 5

type StatusRequest struct {
	Id        string  `json:"id"`
	Backend   string  `json:"backend"`
	FPS       float64 `json:"fps"`
	Frames    int64   `json:"frames"`
	TimeStamp int64   `json:"timestamp"`
}

type StatusResponse struct {
	Id      string `json:"id"`
	Success bool   `json:"success"`
}

// Snapshot returns the current frame rate and number of processed frames.
type Snapshot func() (fps float64, frames int64)

// Reporter periodically posts the throughput of this instance to a collector.
type Reporter struct {
	id       string
	url      string
	backend  string
	interval time.Duration
	snapshot Snapshot
	client   *resty.Client
	log      *zap.Logger
}

func NewReporter(url, backend string, interval time.Duration, snapshot Snapshot, log *zap.Logger) *Reporter {
	if interval <= 0 {
		interval = TimeOutSeconds * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{
		id:       uuid.NewString(),
		url:      url,
		backend:  backend,
		interval: interval,
		snapshot: snapshot,
		client:   resty.New().SetTimeout(TimeOutSeconds * time.Second),
		log:      log,
	}
}

func (r *Reporter) ID() string {
	return r.id
}

// Send posts one status message.
func (r *Reporter) Send(ctx context.Context) error {
	fps, frames := r.snapshot()
	var respBody StatusResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(StatusRequest{
			Id:        r.id,
			Backend:   r.backend,
			FPS:       fps,
			Frames:    frames,
			TimeStamp: time.Now().Unix(),
		}).
		SetResult(&respBody).
		Post(r.url)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("server returned error: %s, body: %s", resp.Status(), resp.String())
	}
	return nil
}

// SendAliveMessage reports once immediately and then every interval until ctx is done.
func (r *Reporter) SendAliveMessage(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	safeDoRequest := func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("SendAliveMessage panic recovered", zap.Any("panic", rec))
			}
		}()
		if err := r.Send(ctx); err != nil && ctx.Err() == nil {
			r.log.Warn("status report failed", zap.String("url", r.url), zap.Error(err))
		}
	}
	safeDoRequest()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("SendAliveMessage context cancelled, exiting goroutine.")
			return
		case <-ticker.C:
			safeDoRequest()
		}
	}
}
