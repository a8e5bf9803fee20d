package engine

import (
	"image"
	"image/color"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"DetBlur/effect"
)

// MatFrame is a captured frame backed by a BGR gocv.Mat.
type MatFrame struct {
	mat gocv.Mat
	log *zap.Logger
}

func NewMatFrame(m gocv.Mat, log *zap.Logger) *MatFrame {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatFrame{mat: m, log: log}
}

func (f *MatFrame) Mat() gocv.Mat {
	return f.mat
}

func (f *MatFrame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

func (f *MatFrame) Outline(r image.Rectangle, c color.RGBA, thickness int) {
	if err := gocv.Rectangle(&f.mat, r, c, thickness); err != nil {
		f.log.Warn("outline failed", zap.Stringer("box", r), zap.Error(err))
	}
}

// Smooth runs the Gaussian blur on a view of r, so the result lands in the frame without a copy.
func (f *MatFrame) Smooth(r image.Rectangle) error {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return nil
	}
	region := f.mat.Region(r)
	defer region.Close()
	return gocv.GaussianBlur(region, &region, image.Pt(effect.KernelSize, effect.KernelSize), effect.Sigma, effect.Sigma, gocv.BorderDefault)
}

func (f *MatFrame) Text(s string, at image.Point, c color.RGBA) {
	gocv.PutText(&f.mat, s, at, gocv.FontHersheySimplex, 0.5, c, 2)
}

// JPEG encodes the frame for network sinks.
func (f *MatFrame) JPEG() ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, f.mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

func (f *MatFrame) Close() error {
	return f.mat.Close()
}
