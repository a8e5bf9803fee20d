package monitor

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Monitor) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMonitorMetrics(t *testing.T) {
	m := New(nil)
	m.ObserveFPS(12.5)
	m.AddFrame()
	m.AddFrame()
	m.AddDetections("face", 3)
	m.AddDetections("person", 1)
	m.AddDetections("face", 2)
	m.AddSkipped(1)
	m.AddInferenceError("person")
	m.CheckProcessInfo()

	body := scrape(t, m)
	assert.Contains(t, body, "detblur_fps 12.5")
	assert.Contains(t, body, "detblur_frames_total 2")
	assert.Contains(t, body, `detblur_detections_total{detector="face"} 5`)
	assert.Contains(t, body, `detblur_detections_total{detector="person"} 1`)
	assert.Contains(t, body, "detblur_effect_skipped_total 1")
	assert.Contains(t, body, `detblur_inference_errors_total{detector="person"} 1`)
	assert.Contains(t, body, "memory_usage_Megabytes")
}

func TestStartMonStops(t *testing.T) {
	m := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.StartMon(ctx, 0)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StartMon did not return after cancel")
	}
}
