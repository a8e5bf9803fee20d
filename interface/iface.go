package iface

import (
	"image"
	"image/color"
)

// Canvas is the set of in-place drawing operations the pipeline needs from a frame buffer.
type Canvas interface {
	Bounds() image.Rectangle
	// Outline strokes r with the given color. Pixels outside the stroke band are left untouched.
	Outline(r image.Rectangle, c color.RGBA, thickness int)
	// Smooth blurs the pixels of r in place. r must already lie inside Bounds.
	Smooth(r image.Rectangle) error
	Text(s string, at image.Point, c color.RGBA)
}

// Frame is one captured image. It is owned by the capture source and mutated in place by the annotator.
type Frame interface {
	Canvas
	Close() error
}

// Source yields frames in sequence. ok is false at end of stream or on a read failure.
type Source interface {
	Read() (f Frame, ok bool)
	Close() error
}

// Sink presents an annotated frame together with its overlay text.
type Sink interface {
	Show(f Frame, overlay string) (quit bool, err error)
	Close() error
}

// Engine runs one network forward pass and returns its raw detection outputs.
type Engine interface {
	Name() string
	Forward(f Frame) ([]Tensor, error)
	Close() error
}

type Candidate struct {
	Rect       image.Rectangle
	Confidence float32
	ClassID    int
}
