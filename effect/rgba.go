package effect

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const fontSize = 14

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// RGBAFrame is an in-memory frame backed by *image.RGBA.
type RGBAFrame struct {
	img *image.RGBA
}

func NewRGBAFrame(img *image.RGBA) *RGBAFrame {
	return &RGBAFrame{img: img}
}

func (f *RGBAFrame) Image() *image.RGBA {
	return f.img
}

func (f *RGBAFrame) Bounds() image.Rectangle {
	return f.img.Bounds()
}

// Smooth blurs r in place. Pixels beyond r are not read, so r's edges are extended instead.
func (f *RGBAFrame) Smooth(r image.Rectangle) error {
	r = r.Intersect(f.img.Bounds())
	if r.Empty() {
		return nil
	}
	blurred := imaging.Blur(f.img.SubImage(r), Sigma)
	draw.Draw(f.img, r, blurred, image.Point{}, draw.Src)
	return nil
}

// Outline paints a band of the given thickness centered on the border of r.
func (f *RGBAFrame) Outline(r image.Rectangle, c color.RGBA, thickness int) {
	if thickness <= 0 {
		return
	}
	outer := r.Inset(-(thickness / 2))
	inner := outer.Inset(thickness)
	src := image.NewUniform(c)
	for _, band := range []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y),
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y),
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y),
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y),
	} {
		draw.Draw(f.img, band, src, image.Point{}, draw.Src)
	}
}

// Text draws s with its baseline at at.
func (f *RGBAFrame) Text(s string, at image.Point, c color.RGBA) {
	dc := gg.NewContextForRGBA(f.img)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: fontSize}))
	dc.SetColor(c)
	dc.DrawString(s, float64(at.X), float64(at.Y))
}

// JPEG encodes the frame for network sinks.
func (f *RGBAFrame) JPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, f.img, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *RGBAFrame) Close() error {
	return nil
}
