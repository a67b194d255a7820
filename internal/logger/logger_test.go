package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultLoggerIsNoop(t *testing.T) {
	Set(nil)
	require.NotNil(t, L())
	assert.NotPanics(t, func() {
		L().Infow("ignored", FieldCount, 1)
		Sync()
	})
}

func TestComponentLoggerAddsField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core).Sugar())
	t.Cleanup(func() { Set(nil) })

	ComponentLogger("ingest").Debugw("segmented", FieldCount, 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "segmented", entry.Message)
	assert.Equal(t, "ingest", entry.ContextMap()[FieldComponent])
	assert.EqualValues(t, 3, entry.ContextMap()[FieldCount])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	require.NoError(t, Initialize("debug", true))
	assert.True(t, L().Desugar().Core().Enabled(zapcore.DebugLevel))
}
