package throughput

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Tracker measures the instantaneous frame rate of the processing loop.
// Begin and End bracket one frame cycle; FPS may be read from other goroutines.
type Tracker struct {
	clk clock.Clock

	mu     sync.RWMutex
	start  time.Time
	fps    float64
	frames int64
}

func New(clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.New()
	}
	return &Tracker{clk: clk}
}

func (t *Tracker) Begin() {
	now := t.clk.Now()
	t.mu.Lock()
	t.start = now
	t.mu.Unlock()
}

// End closes the cycle opened by Begin. A zero or negative elapsed time cannot be measured:
// ok is false and the previous value is kept.
func (t *Tracker) End() (fps float64, ok bool) {
	now := t.clk.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames++
	elapsed := now.Sub(t.start).Seconds()
	if elapsed <= 0 {
		return t.fps, false
	}
	t.fps = 1 / elapsed
	return t.fps, true
}

func (t *Tracker) FPS() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fps
}

func (t *Tracker) Frames() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frames
}

func (t *Tracker) Label() string {
	return fmt.Sprintf("FPS: %.2f", t.FPS())
}
