package effect

import (
	"errors"
	"fmt"
	"image"

	iface "DetBlur/interface"
)

// Gaussian smoothing parameters of the privacy blur.
const (
	KernelSize = 31
	Sigma      = 10.0
)

var ErrOutOfFrame = errors.New("region outside frame")

// Clamp intersects r with bounds. It fails when nothing of r is left inside the frame.
func Clamp(r, bounds image.Rectangle) (image.Rectangle, error) {
	c := r.Intersect(bounds)
	if c.Dx() <= 0 || c.Dy() <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %v not within %v", ErrOutOfFrame, r, bounds)
	}
	return c, nil
}

// Blur smooths the part of r that lies inside the canvas and returns that part.
// When r is out of frame no pixel is touched.
func Blur(c iface.Canvas, r image.Rectangle) (image.Rectangle, error) {
	clamped, err := Clamp(r, c.Bounds())
	if err != nil {
		return image.Rectangle{}, err
	}
	if err := c.Smooth(clamped); err != nil {
		return image.Rectangle{}, fmt.Errorf("smooth %v: %w", clamped, err)
	}
	return clamped, nil
}
