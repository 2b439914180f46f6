package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	prod, err := New("production", false)
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := New("development", true)
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestGlobal(t *testing.T) {
	t.Cleanup(func() { SetGlobal(nil) })

	l := zap.NewExample()
	SetGlobal(l)
	assert.Same(t, l, L())
	assert.Same(t, l, OrNop(nil))

	other := zap.NewNop()
	assert.Same(t, other, OrNop(other))
}
