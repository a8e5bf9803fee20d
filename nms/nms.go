package nms

import (
	"image"
	"slices"
)

// IoU returns the intersection area of a and b divided by their union area.
func IoU(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := area(inter)
	union := area(a) + area(b) - interArea
	if union <= 0 {
		return 0
	}
	return float32(float64(interArea) / float64(union))
}

func area(r image.Rectangle) int {
	if r.Empty() {
		return 0
	}
	return r.Dx() * r.Dy()
}

// Suppress runs greedy non-max suppression and returns the indices of the boxes it keeps,
// highest confidence first. Equal confidences keep their input order.
// A box is dropped when its IoU with an already kept box is above threshold.
func Suppress(rects []image.Rectangle, scores []float32, threshold float32) []int {
	if len(rects) != len(scores) || len(rects) == 0 {
		return nil
	}
	order := make([]int, len(rects))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return 0
	})

	keep := make([]int, 0, len(order))
	for _, idx := range order {
		suppressed := false
		for _, k := range keep {
			if IoU(rects[idx], rects[k]) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, idx)
		}
	}
	return keep
}
