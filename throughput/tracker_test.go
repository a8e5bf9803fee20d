package throughput

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	clk := clock.NewMock()
	tr := New(clk)
	assert.Equal(t, "FPS: 0.00", tr.Label())

	t.Run("Test Measure", func(t *testing.T) {
		tr.Begin()
		clk.Add(40 * time.Millisecond)
		fps, ok := tr.End()
		assert.True(t, ok)
		assert.InDelta(t, 25.0, fps, 1e-9)
		assert.Equal(t, "FPS: 25.00", tr.Label())
	})

	t.Run("Test Zero Elapsed", func(t *testing.T) {
		tr.Begin()
		fps, ok := tr.End()
		assert.False(t, ok)
		assert.InDelta(t, 25.0, fps, 1e-9)
		assert.InDelta(t, 25.0, tr.FPS(), 1e-9)
		assert.Equal(t, "FPS: 25.00", tr.Label())
	})

	t.Run("Test No Smoothing", func(t *testing.T) {
		tr.Begin()
		clk.Add(100 * time.Millisecond)
		fps, ok := tr.End()
		assert.True(t, ok)
		assert.InDelta(t, 10.0, fps, 1e-9)
	})

	assert.Equal(t, int64(3), tr.Frames())
}

func TestTrackerRealClock(t *testing.T) {
	tr := New(nil)
	tr.Begin()
	time.Sleep(2 * time.Millisecond)
	fps, ok := tr.End()
	assert.True(t, ok)
	assert.Greater(t, fps, 0.0)
	assert.Less(t, fps, 500.0+1)
}
