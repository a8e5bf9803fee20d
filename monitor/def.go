package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

const PollInterval = 500 * time.Millisecond

// Monitor holds the pipeline metrics and the process gauges polled by StartMon.
type Monitor struct {
	registry *prometheus.Registry
	proc     *process.Process
	log      *zap.Logger

	memUsage        prometheus.Gauge
	cpuUsage        prometheus.Gauge
	fps             prometheus.Gauge
	frames          prometheus.Counter
	detections      *prometheus.CounterVec
	skipped         prometheus.Counter
	inferenceErrors *prometheus.CounterVec
}

func New(log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		registry: prometheus.NewRegistry(),
		log:      log,
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_usage_Megabytes",
			Help: "Memory usage in Megabytes",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_usage_percent",
			Help: "CPU usage in percent",
		}),
		fps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "detblur_fps",
			Help: "Instantaneous frame rate of the processing loop",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detblur_frames_total",
			Help: "Total number of frames shown",
		}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detblur_detections_total",
			Help: "Total number of boxes kept after suppression",
		}, []string{"detector"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "detblur_effect_skipped_total",
			Help: "Total number of privacy effects skipped for boxes outside the frame",
		}),
		inferenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detblur_inference_errors_total",
			Help: "Total number of failed forward passes",
		}, []string{"detector"}),
	}
	m.registry.MustRegister(m.memUsage, m.cpuUsage, m.fps, m.frames, m.detections, m.skipped, m.inferenceErrors)
	if p, err := process.NewProcess(int32(os.Getpid())); err != nil {
		log.Warn("process stats unavailable", zap.Error(err))
	} else {
		m.proc = p
	}
	return m
}

func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Monitor) ObserveFPS(fps float64) {
	m.fps.Set(fps)
}

func (m *Monitor) AddFrame() {
	m.frames.Inc()
}

func (m *Monitor) AddDetections(detector string, n int) {
	m.detections.WithLabelValues(detector).Add(float64(n))
}

func (m *Monitor) AddSkipped(n int) {
	m.skipped.Add(float64(n))
}

func (m *Monitor) AddInferenceError(detector string) {
	m.inferenceErrors.WithLabelValues(detector).Inc()
}

func (m *Monitor) CheckProcessInfo() {
	if m.proc == nil {
		return
	}
	if memInfo, err := m.proc.MemoryInfo(); err == nil {
		m.memUsage.Set(float64(memInfo.RSS / 1024 / 1024))
	}
	if cpuPercent, err := m.proc.CPUPercent(); err == nil {
		m.cpuUsage.Set(math.Round(cpuPercent*100) / 100)
	}
}

// StartMon polls process stats until ctx is done. A positive port also serves /metrics on its own listener.
func (m *Monitor) StartMon(ctx context.Context, port int) {
	var srv *http.Server
	if port > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				m.log.Error("Prometheus server ListenAndServe error", zap.Error(err))
			}
		}()
		m.log.Info("Serving metrics", zap.Int("port", port))
	}
	m.CheckProcessInfo()
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
checkPcs:
	for {
		select {
		case <-ctx.Done():
			break checkPcs
		case <-ticker.C:
			m.CheckProcessInfo()
		}
	}
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		m.log.Error("Prometheus server Shutdown error", zap.Error(err))
	}
}
