package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	prod, err := New("prod")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := New("dev")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestMust(t *testing.T) {
	l := zap.NewNop()
	assert.Same(t, l, Must(l, nil))
	assert.Panics(t, func() { Must(nil, errors.New("boom")) })
}

func TestNamed_NilBase(t *testing.T) {
	assert.NotNil(t, Named(nil, "api"))
}
