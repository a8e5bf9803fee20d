package decode

import (
	"image"

	iface "DetBlur/interface"
	"DetBlur/profile"
)

// Decode turns the rows of t into candidates for a width x height frame.
// Only rows whose confidence is strictly above p.Confidence and whose class is accepted by p survive.
// Boxes are not clamped to the frame.
func Decode(t iface.Tensor, p profile.Profile, width, height int) []iface.Candidate {
	if t.Cols < p.MinCols() {
		return nil
	}
	var out []iface.Candidate
	for i := 0; i < t.Rows; i++ {
		row := t.Row(i)
		conf, classID := score(row, p.Layout)
		if !(conf > p.Confidence) || !p.Accepts(classID) {
			continue
		}
		out = append(out, iface.Candidate{
			Rect:       pixelRect(row, width, height),
			Confidence: conf,
			ClassID:    classID,
		})
	}
	return out
}

// DecodeAll decodes every output tensor of one detector, in order.
func DecodeAll(ts []iface.Tensor, p profile.Profile, width, height int) []iface.Candidate {
	var out []iface.Candidate
	for _, t := range ts {
		out = append(out, Decode(t, p, width, height)...)
	}
	return out
}

func score(row []float32, layout profile.Layout) (float32, int) {
	if layout == profile.LayoutObjectness {
		return row[4], 0
	}
	best, classID := row[5], 0
	for j := 6; j < len(row); j++ {
		if row[j] > best {
			best, classID = row[j], j-5
		}
	}
	return best, classID
}

// pixelRect denormalizes a row's center/size and truncates toward zero at every step.
// Truncation biases boxes slightly up-left compared to rounding; kept for reproducible boxes.
func pixelRect(row []float32, width, height int) image.Rectangle {
	cx := int(row[0] * float32(width))
	cy := int(row[1] * float32(height))
	w := int(row[2] * float32(width))
	h := int(row[3] * float32(height))
	left := cx - w/2
	top := cy - h/2
	return image.Rectangle{
		Min: image.Point{X: left, Y: top},
		Max: image.Point{X: left + w, Y: top + h},
	}
}
