package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detblur.log")

	l := NewFileLogger(path, false)
	l.Debug("hidden")
	l.Info("frame shown", zap.Int("frame", 3))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"frame shown"`)
	assert.Contains(t, string(data), `"frame":3`)
	assert.Contains(t, string(data), `"timestamp"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestFileLoggerDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	l := NewFileLogger(path, true)
	l.Debug("decoded")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "decoded")
}

func TestSetLogger(t *testing.T) {
	prev := Log()
	defer setLogger(prev)

	l := zap.NewExample()
	setLogger(l)
	assert.Same(t, l, Log())
	assert.Same(t, l, zap.L())
	assert.NotNil(t, S())
	assert.NotNil(t, Named("pipeline"))
	Sync()
}
