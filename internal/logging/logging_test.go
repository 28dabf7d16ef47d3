package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplaceCapturesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	defer restore()

	Warn("save failed", Category("Docker"), Err(errors.New("disk full")), Uint64("bytes", 42))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "save failed", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "Docker", ctx["category"])
	assert.Equal(t, "disk full", ctx["error"])
	assert.Equal(t, uint64(42), ctx["bytes"])
}

func TestSetLevelIgnoresGarbage(t *testing.T) {
	SetLevel("info")
	assert.Equal(t, zapcore.InfoLevel, globalLevel.Level())

	SetLevel("not-a-level")
	assert.Equal(t, zapcore.InfoLevel, globalLevel.Level())

	SetLevel("warn")
}

func TestLNeverNil(t *testing.T) {
	restore := Replace(nil)
	defer restore()

	assert.NotNil(t, L())
	assert.NotNil(t, S())
}
