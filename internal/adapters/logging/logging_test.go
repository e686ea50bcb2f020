package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_StdoutJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Options{Level: "warn"}, &buf)
	defer closer.Close()

	logger.Info("xp_event", "event", "hidden")
	logger.Warn("slow_query", "query", "select roster_group", "duration_ms", 75)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	require.Equal(t, "slow_query", rec["msg"])
	require.Equal(t, "select roster_group", rec["query"])
	require.Equal(t, "WARN", rec["level"])
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "squadxp.log")
	var buf bytes.Buffer
	logger, closer := New(Options{Level: "info", Path: path}, &buf)

	logger.Info("session_event", "event", "session_archived", "slot", "2026-03-04|seniors|AM")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"event":"session_archived"`)
	require.Equal(t, buf.String(), string(data))
}
