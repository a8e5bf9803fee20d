package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"DetBlur/annotate"
	iface "DetBlur/interface"
	"DetBlur/profile"
	"DetBlur/throughput"
)

var ErrNoSink = errors.New("no output sink configured")

// OverlayOrigin is where the frame rate label is drawn.
var OverlayOrigin = image.Pt(10, 30)

// Detector pairs an inference engine with the profile its outputs are decoded with.
type Detector struct {
	Engine  iface.Engine
	Profile profile.Profile
}

// Recorder receives per-frame counters. *monitor.Monitor implements it.
type Recorder interface {
	ObserveFPS(fps float64)
	AddFrame()
	AddDetections(detector string, n int)
	AddSkipped(n int)
	AddInferenceError(detector string)
}

type Options struct {
	Source    iface.Source
	Detectors []Detector
	Sink      iface.Sink
	Tracker   *throughput.Tracker
	Annotator *annotate.Annotator
	Recorder  Recorder
	Log       *zap.Logger
}

type Stats struct {
	Frames          int64
	Detections      map[string]int
	Skipped         int
	InferenceErrors int
	FPS             float64
	// Quit is set when a sink asked to stop before the end of the stream.
	Quit bool
}

// Run processes frames until the source is exhausted, a sink asks to quit or ctx is done.
// Errors from inference or effects are per frame and never end the loop. A sink error does.
func Run(ctx context.Context, opts Options) (Stats, error) {
	stats := Stats{Detections: map[string]int{}}
	if opts.Sink == nil {
		return stats, ErrNoSink
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = throughput.New(nil)
	}
	ann := opts.Annotator
	if ann == nil {
		ann = annotate.New(log)
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	for {
		if err := ctx.Err(); err != nil {
			log.Info("processing interrupted", zap.Int64("frames", stats.Frames))
			return stats, nil
		}
		f, ok := opts.Source.Read()
		if !ok {
			log.Info("end of stream", zap.Int64("frames", stats.Frames))
			return stats, nil
		}
		quit, err := process(ctx, f, opts.Detectors, ann, tracker, opts.Sink, rec, &stats, log)
		if cerr := f.Close(); cerr != nil {
			log.Warn("frame close failed", zap.Error(cerr))
		}
		if err != nil {
			return stats, fmt.Errorf("show frame %d: %w", stats.Frames, err)
		}
		if quit {
			stats.Quit = true
			log.Info("quit requested", zap.Int64("frames", stats.Frames))
			return stats, nil
		}
	}
}

func process(ctx context.Context, f iface.Frame, dets []Detector, ann *annotate.Annotator, tracker *throughput.Tracker,
	sink iface.Sink, rec Recorder, stats *Stats, log *zap.Logger) (bool, error) {
	tracker.Begin()
	outs := make([]annotate.Output, 0, len(dets))
	for _, d := range dets {
		tensors, err := d.Engine.Forward(f)
		if err != nil {
			stats.InferenceErrors++
			rec.AddInferenceError(d.Profile.Name)
			log.Warn("inference failed", zap.String("detector", d.Profile.Name), zap.Int64("frame", stats.Frames), zap.Error(err))
			continue
		}
		outs = append(outs, annotate.Output{Profile: d.Profile, Tensors: tensors})
	}

	rep := ann.Annotate(ctx, f, outs)
	for name, boxes := range rep.Boxes {
		stats.Detections[name] += len(boxes)
		rec.AddDetections(name, len(boxes))
	}
	stats.Skipped += rep.Skipped
	rec.AddSkipped(rep.Skipped)
	if rep.Errors != nil {
		log.Debug("frame annotated with errors", zap.Int64("frame", stats.Frames), zap.Error(rep.Errors))
	}

	if fps, ok := tracker.End(); ok {
		stats.FPS = fps
		rec.ObserveFPS(fps)
	}
	label := tracker.Label()
	f.Text(label, OverlayOrigin, annotate.Green)

	stats.Frames++
	rec.AddFrame()
	return sink.Show(f, label)
}

type nopRecorder struct{}

func (nopRecorder) ObserveFPS(float64)        {}
func (nopRecorder) AddFrame()                 {}
func (nopRecorder) AddDetections(string, int) {}
func (nopRecorder) AddSkipped(int)            {}
func (nopRecorder) AddInferenceError(string)  {}
