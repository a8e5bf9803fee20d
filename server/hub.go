package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	iface "DetBlur/interface"
)

const (
	sendQueue    = 4
	writeTimeout = time.Second
)

// Encoder is implemented by frames that can be serialized for viewers.
type Encoder interface {
	JPEG() ([]byte, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type viewer struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (v *viewer) close() {
	v.closeOnce.Do(func() {
		close(v.send)
		_ = v.conn.Close()
	})
}

// Hub is an output sink broadcasting every shown frame as a JPEG to websocket viewers.
// A viewer that falls behind drops frames rather than stalling the loop.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string]*viewer
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{viewers: map[string]*viewer{}, log: log}
}

func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Show encodes f once when at least one viewer is connected. It never asks the loop to quit.
func (h *Hub) Show(f iface.Frame, overlay string) (bool, error) {
	if h.Viewers() == 0 {
		return false, nil
	}
	enc, ok := f.(Encoder)
	if !ok {
		return false, nil
	}
	data, err := enc.JPEG()
	if err != nil {
		return false, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, v := range h.viewers {
		select {
		case v.send <- data:
		default:
		}
	}
	return false, nil
}

func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 升级失败，不要再写 JSON
		return
	}
	v := &viewer{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendQueue)}
	h.mu.Lock()
	h.viewers[v.id] = v
	h.mu.Unlock()
	h.log.Info("viewer connected", zap.String("id", v.id), zap.String("remote", c.Request.RemoteAddr))

	go h.writePump(v)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(v)
			h.log.Info("viewer disconnected", zap.String("id", v.id), zap.Error(err))
			return
		}
	}
}

func (h *Hub) writePump(v *viewer) {
	for data := range v.send {
		_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			h.remove(v)
			return
		}
	}
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	delete(h.viewers, v.id)
	h.mu.Unlock()
	v.close()
}

func (h *Hub) Close() error {
	h.mu.Lock()
	viewers := h.viewers
	h.viewers = map[string]*viewer{}
	h.mu.Unlock()
	for _, v := range viewers {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended")
		_ = v.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		v.close()
	}
	return nil
}
