package engine

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"DetBlur/effect"
)

func TestSelectBackend(t *testing.T) {
	t.Run("auto with device", func(t *testing.T) {
		calls := 0
		b := SelectBackend(ModeAuto, func() int { calls++; return 1 })
		assert.Equal(t, CUDABackend, b)
		assert.True(t, b.Accelerated)
		assert.Equal(t, 1, calls)
	})

	t.Run("auto without device", func(t *testing.T) {
		calls := 0
		b := SelectBackend(ModeAuto, func() int { calls++; return 0 })
		assert.Equal(t, CPUBackend, b)
		assert.False(t, b.Accelerated)
		assert.Equal(t, 1, calls)
	})

	t.Run("auto without probe", func(t *testing.T) {
		assert.Equal(t, CPUBackend, SelectBackend(ModeAuto, nil))
	})

	t.Run("forced modes skip probe", func(t *testing.T) {
		probe := func() int {
			t.Fatal("probe should not be called")
			return 0
		}
		assert.Equal(t, CUDABackend, SelectBackend(ModeCUDA, probe))
		assert.Equal(t, CPUBackend, SelectBackend(ModeCPU, probe))
	})
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]string{
		"":       ModeAuto,
		"auto":   ModeAuto,
		" CUDA ": ModeCUDA,
		"cpu":    ModeCPU,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("opencl")
	assert.Error(t, err)
}

func TestDetector_All(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "face.cfg")
	require.NoError(t, os.WriteFile(cfg, []byte("[net]\n"), 0o644))

	d := NewDetector("face", nil)

	t.Run("Test New", func(t *testing.T) {
		assert.Equal(t, "face", d.Name())
		assert.Equal(t, UNREGISTERED, d.State)
		assert.Equal(t, DefaultInputSize, d.InputSize)
	})

	t.Run("Test LoadModel missing weights", func(t *testing.T) {
		err := d.LoadModel(cfg, filepath.Join(dir, "missing.weights"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weights")
		assert.Equal(t, UNREGISTERED, d.State)
	})

	t.Run("Test LoadModel missing config", func(t *testing.T) {
		err := d.LoadModel(filepath.Join(dir, "missing.cfg"), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config")
	})

	t.Run("Test LoadModel empty path", func(t *testing.T) {
		assert.Error(t, d.LoadModel("", ""))
	})

	t.Run("Test Forward unloaded", func(t *testing.T) {
		f := NewMatFrame(gocv.NewMat(), nil)
		defer f.Close()
		_, err := d.Forward(f)
		assert.ErrorIs(t, err, ErrNotLoaded)
	})

	t.Run("Test SetBackend unloaded", func(t *testing.T) {
		assert.ErrorIs(t, d.SetBackend(CPUBackend), ErrNotLoaded)
		assert.ErrorIs(t, ApplyBackend(CPUBackend, d), ErrNotLoaded)
	})

	t.Run("Test CheckConfig", func(t *testing.T) {
		d.SetInputSize(608)
		d.SetInputSize(-1)
		config := d.CheckConfig()
		assert.Equal(t, "face", config.Name)
		assert.Equal(t, 608, config.InputSize)
		assert.Equal(t, "", config.Backend)
	})

	t.Run("Test Close", func(t *testing.T) {
		assert.NoError(t, d.Close())
		assert.Equal(t, UNREGISTERED, d.State)
	})
}

func TestMatToTensor(t *testing.T) {
	m := gocv.NewMatWithSize(2, 6, gocv.MatTypeCV32F)
	defer m.Close()
	for r := 0; r < 2; r++ {
		for c := 0; c < 6; c++ {
			m.SetFloatAt(r, c, float32(r*10+c))
		}
	}

	tensor, err := matToTensor(m)
	require.NoError(t, err)
	assert.Equal(t, 2, tensor.Rows)
	assert.Equal(t, 6, tensor.Cols)
	assert.Equal(t, []float32{10, 11, 12, 13, 14, 15}, tensor.Row(1))
}

func TestMatFrame(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 40, 60, gocv.MatTypeCV8UC3)
	f := NewMatFrame(m, nil)
	defer f.Close()

	assert.Equal(t, image.Rect(0, 0, 60, 40), f.Bounds())

	f.Outline(image.Rect(10, 10, 30, 30), color.RGBA{G: 255, A: 255}, 1)
	v := f.Mat().GetVecbAt(10, 20)
	assert.Equal(t, uint8(255), v[1])

	// a white square smoothed into a black frame spreads past its edge
	white := f.Mat().Region(image.Rect(40, 10, 50, 20))
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))
	_ = white.Close()
	_, err := effect.Blur(f, image.Rect(30, 0, 60, 40))
	require.NoError(t, err)
	assert.Greater(t, f.Mat().GetVecbAt(15, 38)[0], uint8(0))
	assert.Less(t, f.Mat().GetVecbAt(15, 45)[0], uint8(255))

	_, err = effect.Blur(f, image.Rect(100, 100, 120, 120))
	assert.ErrorIs(t, err, effect.ErrOutOfFrame)
}

func TestMatFrameSmooth(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 20, 20, gocv.MatTypeCV8UC3)
	f := NewMatFrame(m, nil)
	defer f.Close()

	assert.NoError(t, f.Smooth(image.Rect(2, 2, 18, 18)))
	assert.NoError(t, f.Smooth(image.Rect(10, 10, 40, 40)))
	// nothing of the frame to blur
	assert.NoError(t, f.Smooth(image.Rect(30, 30, 40, 40)))
}

func TestMatFrameJPEG(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 128, 0, 0), 16, 16, gocv.MatTypeCV8UC3)
	f := NewMatFrame(m, nil)
	defer f.Close()

	b, err := f.JPEG()
	require.NoError(t, err)
	require.Greater(t, len(b), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, b[:2])
}
