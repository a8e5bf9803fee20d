package annotate

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"DetBlur/decode"
	"DetBlur/effect"
	iface "DetBlur/interface"
	"DetBlur/nms"
	"DetBlur/profile"
)

const Thickness = 3

var Green = color.RGBA{G: 255, A: 255}

// Output is one detector's raw result for the current frame.
type Output struct {
	Profile profile.Profile
	Tensors []iface.Tensor
}

// Box is a candidate that survived suppression.
type Box struct {
	iface.Candidate
	// Blurred is the region actually smoothed, empty when no effect ran.
	Blurred image.Rectangle
}

type Report struct {
	Boxes   map[string][]Box
	Skipped int
	Errors  error
}

func (r Report) Total() int {
	n := 0
	for _, b := range r.Boxes {
		n += len(b)
	}
	return n
}

type Annotator struct {
	log     *zap.Logger
	workers int
}

type Option func(*Annotator)

// WithParallelDecode decodes the output tensors of each detector on up to workers goroutines.
func WithParallelDecode(workers int) Option {
	return func(a *Annotator) {
		a.workers = workers
	}
}

func New(log *zap.Logger, opts ...Option) *Annotator {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Annotator{log: log}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Annotate draws every detector's accepted boxes onto f, in the order of outs.
// Each detector is suppressed on its own candidates only. Effect failures are contained to their box.
func (a *Annotator) Annotate(ctx context.Context, f iface.Frame, outs []Output) Report {
	bounds := f.Bounds()
	rep := Report{Boxes: make(map[string][]Box, len(outs))}
	for _, out := range outs {
		p := out.Profile
		cands, err := a.decode(ctx, out, bounds.Dx(), bounds.Dy())
		if err != nil {
			rep.Errors = multierr.Append(rep.Errors, fmt.Errorf("%s: decode: %w", p.Name, err))
			continue
		}
		rects := make([]image.Rectangle, len(cands))
		scores := make([]float32, len(cands))
		for i, c := range cands {
			rects[i] = c.Rect.Add(bounds.Min)
			scores[i] = c.Confidence
		}
		keep := nms.Suppress(rects, scores, p.NMS)
		boxes := make([]Box, 0, len(keep))
		for _, idx := range keep {
			box := Box{Candidate: cands[idx]}
			box.Rect = rects[idx]
			f.Outline(box.Rect, Green, Thickness)
			if p.Privacy {
				blurred, err := effect.Blur(f, box.Rect)
				if err != nil {
					rep.Skipped++
					rep.Errors = multierr.Append(rep.Errors, fmt.Errorf("%s: %w", p.Name, err))
					a.log.Warn("blur skipped", zap.String("detector", p.Name), zap.Stringer("box", box.Rect), zap.Error(err))
				}
				box.Blurred = blurred
			}
			if p.Label != "" {
				f.Text(fmt.Sprintf("%s: %.2f", p.Label, box.Confidence), image.Pt(box.Rect.Min.X, box.Rect.Min.Y-5), Green)
			}
			boxes = append(boxes, box)
		}
		rep.Boxes[p.Name] = append(rep.Boxes[p.Name], boxes...)
		a.log.Debug("detector annotated",
			zap.String("detector", p.Name),
			zap.Int("candidates", len(cands)),
			zap.Int("accepted", len(boxes)))
	}
	return rep
}

func (a *Annotator) decode(ctx context.Context, out Output, width, height int) ([]iface.Candidate, error) {
	if a.workers > 1 {
		return decode.DecodeParallel(ctx, out.Tensors, out.Profile, width, height, a.workers)
	}
	return decode.DecodeAll(out.Tensors, out.Profile, width, height), nil
}
