package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestConfig(t *testing.T) {
	cfg := Config(Options{Level: "error"})
	assert.Equal(t, zapcore.ErrorLevel, cfg.Level.Level())
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.Equal(t, "json", cfg.Encoding)

	cfg = Config(Options{Level: "error", Debug: true, Stderr: true})
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
}

func TestNew(t *testing.T) {
	log, err := New(Options{Level: "info", Stderr: true})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
