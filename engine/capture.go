package engine

import (
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	iface "DetBlur/interface"
)

// VideoSource reads frames from a video file, stream URL or camera index.
type VideoSource struct {
	cap *gocv.VideoCapture
	log *zap.Logger
}

func OpenVideo(path string, log *zap.Logger) (*VideoSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("could not open video %s: %w", path, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, fmt.Errorf("could not open video %s", path)
	}
	log.Info("Opened video source",
		zap.String("source", path),
		zap.Float64("fps", cap.Get(gocv.VideoCaptureFPS)),
		zap.Float64("width", cap.Get(gocv.VideoCaptureFrameWidth)),
		zap.Float64("height", cap.Get(gocv.VideoCaptureFrameHeight)))
	return &VideoSource{cap: cap, log: log}, nil
}

// Read blocks until the next frame is available. ok is false at end of stream.
func (s *VideoSource) Read() (iface.Frame, bool) {
	m := gocv.NewMat()
	if ok := s.cap.Read(&m); !ok || m.Empty() {
		_ = m.Close()
		return nil, false
	}
	return NewMatFrame(m, s.log), true
}

// FPS is the nominal frame rate reported by the container, 0 when unknown.
func (s *VideoSource) FPS() float64 {
	return s.cap.Get(gocv.VideoCaptureFPS)
}

func (s *VideoSource) Close() error {
	return s.cap.Close()
}
