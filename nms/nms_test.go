package nms

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIoU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	assert.Equal(t, float32(1), IoU(a, a))
	assert.Equal(t, float32(0), IoU(a, image.Rect(10, 0, 20, 10)))
	assert.Equal(t, float32(0), IoU(a, image.Rect(50, 50, 60, 60)))
	assert.InDelta(t, 25.0/175.0, IoU(a, image.Rect(5, 5, 15, 15)), 1e-6)
	assert.Equal(t, float32(0), IoU(image.Rectangle{}, image.Rectangle{}))
}

func TestSuppressOverlappingPair(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(10, 10, 110, 110),
		image.Rect(15, 15, 115, 115),
	}
	assert.Greater(t, IoU(rects[0], rects[1]), float32(0.4))
	assert.Equal(t, []int{0}, Suppress(rects, []float32{0.9, 0.8}, 0.4))
	assert.Equal(t, []int{1}, Suppress(rects, []float32{0.7, 0.8}, 0.4))
}

func TestSuppressKeepsDisjointBoxesByConfidence(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(100, 100, 110, 110),
		image.Rect(200, 200, 210, 210),
	}
	assert.Equal(t, []int{2, 0, 1}, Suppress(rects, []float32{0.5, 0.3, 0.9}, 0.4))
}

func TestSuppressTieBreakIsInsertionOrder(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 100, 100),
		image.Rect(1, 1, 101, 101),
		image.Rect(2, 2, 102, 102),
	}
	assert.Equal(t, []int{0}, Suppress(rects, []float32{0.6, 0.6, 0.6}, 0.4))

	swapped := []image.Rectangle{rects[2], rects[1], rects[0]}
	assert.Equal(t, []int{0}, Suppress(swapped, []float32{0.6, 0.6, 0.6}, 0.4))
}

func TestSuppressThresholdIsExclusive(t *testing.T) {
	// IoU = 50/150 = 1/3
	rects := []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10)}
	iou := IoU(rects[0], rects[1])
	assert.Len(t, Suppress(rects, []float32{0.9, 0.8}, iou), 2)
	assert.Len(t, Suppress(rects, []float32{0.9, 0.8}, iou-0.01), 1)
}

func TestSuppressInvalidInput(t *testing.T) {
	assert.Nil(t, Suppress(nil, nil, 0.4))
	assert.Nil(t, Suppress([]image.Rectangle{image.Rect(0, 0, 1, 1)}, nil, 0.4))
}

func randomBoxes(r *rand.Rand, n int) ([]image.Rectangle, []float32) {
	rects := make([]image.Rectangle, n)
	scores := make([]float32, n)
	for i := range rects {
		x, y := r.Intn(200), r.Intn(200)
		w, h := 10+r.Intn(60), 10+r.Intn(60)
		rects[i] = image.Rect(x, y, x+w, y+h)
		// distinct scores so that input order cannot matter
		scores[i] = float32(i+1) / float32(n+1)
	}
	r.Shuffle(n, func(i, j int) {
		rects[i], rects[j] = rects[j], rects[i]
		scores[i], scores[j] = scores[j], scores[i]
	})
	return rects, scores
}

func TestSuppressProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const threshold = float32(0.4)
	for round := 0; round < 50; round++ {
		rects, scores := randomBoxes(r, 40)
		keep := Suppress(rects, scores, threshold)
		require.NotEmpty(t, keep)

		kept := make(map[int]bool, len(keep))
		for i, a := range keep {
			kept[a] = true
			for _, b := range keep[i+1:] {
				assert.LessOrEqual(t, IoU(rects[a], rects[b]), threshold)
				assert.GreaterOrEqual(t, scores[a], scores[b])
			}
		}
		// every dropped box overlaps a kept box with at least its confidence
		for i := range rects {
			if kept[i] {
				continue
			}
			found := false
			for _, k := range keep {
				if IoU(rects[i], rects[k]) > threshold && scores[k] >= scores[i] {
					found = true
					break
				}
			}
			assert.True(t, found, "box %d dropped without a dominating kept box", i)
		}

		// the same boxes in reversed input order keep the same rectangles
		n := len(rects)
		revRects := make([]image.Rectangle, n)
		revScores := make([]float32, n)
		for i := range rects {
			revRects[n-1-i] = rects[i]
			revScores[n-1-i] = scores[i]
		}
		revKeep := Suppress(revRects, revScores, threshold)
		require.Len(t, revKeep, len(keep))
		for i := range keep {
			assert.Equal(t, rects[keep[i]], revRects[revKeep[i]])
		}

		assert.Equal(t, keep, Suppress(rects, scores, threshold))
	}
}
