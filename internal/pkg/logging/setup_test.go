package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/overunder/internal/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("service", "scraper")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger.Debug("rewinding", "attempt", 1)
	logger.Warn("Failed to move to next week", "week", 3)

	assert.Contains(t, debugBuf.String(), "rewinding")
	assert.Contains(t, debugBuf.String(), "Failed to move to next week")
	assert.NotContains(t, warnBuf.String(), "rewinding")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(warnBuf.String())), &entry))
	assert.Equal(t, "scraper", entry["service"])
	assert.Equal(t, float64(3), entry["week"])
}

func TestMultiHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMultiHandler(slog.NewJSONHandler(&buf, nil))).WithGroup("match")
	logger.Info("stored", "home", "Monaco")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	group, ok := entry["match"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Monaco", group["home"])
}

func TestSetup_WritesJSONFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "scraper.log")
	logger, closer, err := Setup(&config.LoggingConfig{Level: "info", File: path}, "scraper")
	require.NoError(t, err)

	logger.Debug("hidden")
	slog.Info("Week done", "week", 1)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "Week done", entry["msg"])
	assert.Equal(t, "scraper", entry["service"])
}

func TestSetup_BadFile(t *testing.T) {
	_, _, err := Setup(&config.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")}, "scraper")
	assert.Error(t, err)
}
