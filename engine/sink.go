package engine

import (
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	iface "DetBlur/interface"
)

const (
	WindowName   = "Detect"
	WindowWidth  = 1280
	WindowHeight = 720
	keyEsc       = 27
)

// WindowSink shows frames in a resizable window. ESC or q asks the loop to stop.
type WindowSink struct {
	win *gocv.Window
}

func NewWindowSink(name string) *WindowSink {
	win := gocv.NewWindow(name)
	win.ResizeWindow(WindowWidth, WindowHeight)
	return &WindowSink{win: win}
}

func (s *WindowSink) Show(f iface.Frame, overlay string) (bool, error) {
	mf, ok := f.(*MatFrame)
	if !ok {
		return false, ErrUnsupportedFrame
	}
	s.win.IMShow(mf.Mat())
	key := s.win.WaitKey(1)
	return key == keyEsc || key == 'q', nil
}

func (s *WindowSink) Close() error {
	return s.win.Close()
}

// FileSink writes annotated frames to an MJPG video file, opened on the first frame.
type FileSink struct {
	path   string
	fps    float64
	writer *gocv.VideoWriter
	log    *zap.Logger
}

func NewFileSink(path string, fps float64, log *zap.Logger) *FileSink {
	if fps <= 0 {
		fps = 25
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileSink{path: path, fps: fps, log: log}
}

func (s *FileSink) Show(f iface.Frame, overlay string) (bool, error) {
	mf, ok := f.(*MatFrame)
	if !ok {
		return false, ErrUnsupportedFrame
	}
	if s.writer == nil {
		b := f.Bounds()
		w, err := gocv.VideoWriterFile(s.path, "MJPG", s.fps, b.Dx(), b.Dy(), true)
		if err != nil {
			return false, fmt.Errorf("open output %s: %w", s.path, err)
		}
		s.writer = w
		s.log.Info("Writing output video", zap.String("path", s.path), zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	}
	if err := s.writer.Write(mf.Mat()); err != nil {
		return false, fmt.Errorf("write output %s: %w", s.path, err)
	}
	return false, nil
}

func (s *FileSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
