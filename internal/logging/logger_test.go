package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tsifsaropt1/microplastics-analyzer/internal/config"
)

func TestNew_ConsoleDefaults(t *testing.T) {
	l, err := New(config.DefaultConfig().Logging)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.False(t, l.Desugar().Core().Enabled(zap.InfoLevel), "default level is warn")
	assert.True(t, l.Desugar().Core().Enabled(zap.WarnLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := config.DefaultConfig().Logging
	cfg.Level = "loud"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := config.LoggingConfig{Level: "debug", Format: "json", Output: "file", File: path}

	l, err := New(cfg)
	require.NoError(t, err)
	l.Infow("hello", "key", "value")
	l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).WithComponent("storage")

	l.Warnw("write failed", "key", "scans")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "write failed", entry.Message)
	assert.Equal(t, "storage", entry.ContextMap()["component"])
	assert.Equal(t, "scans", entry.ContextMap()["key"])
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Errorw("ignored")
	l.Sync()
}
