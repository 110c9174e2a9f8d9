package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/uiscout/internal/config"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	logger.Named("crawler").Info("page loaded", zap.String("url", "https://app.test/"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "uiscout.crawler", entry["logger"])
	assert.Equal(t, "page loaded", entry["msg"])
	assert.Equal(t, "https://app.test/", entry["url"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "loud", Format: "console"}, zapcore.AddSync(&buf))

	logger.Debug("debug line")
	logger.Info("info line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.Contains(t, out, "info line")
	assert.Contains(t, out, "uiscout.")
}

func TestFileCoreWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uiscout.log")
	var console bytes.Buffer
	logger := NewWithWriter(config.LogConfig{
		Level:   "info",
		Format:  "console",
		File:    path,
		MaxSize: 1,
	}, zapcore.AddSync(&console))

	logger.Info("workflow saved", zap.Int("states", 4))
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "workflow saved", entry["msg"])
	assert.EqualValues(t, 4, entry["states"])
	assert.Contains(t, console.String(), "workflow saved")
}
