package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/pinlogin/internal/config"
)

func TestNewMasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug)
	l.Info("complete", slog.String("pin", "1234"), slog.Int("length", 4))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "***", rec["pin"])
	require.EqualValues(t, 4, rec["length"])
	require.Equal(t, "INFO", rec["severity"])
	require.Contains(t, rec, "ts")
	require.NotContains(t, buf.String(), "1234")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)
	l.Info("hidden")
	require.Zero(t, buf.Len())
}

func TestOpen(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "pinlogin.log")
	l, closeFn, err := Open(config.LogConfig{Path: path, Level: "debug"})
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"hello"`)

	_, closeFn, err = Open(config.LogConfig{})
	require.NoError(t, err)
	require.NoError(t, closeFn())

	_, _, err = Open(config.LogConfig{Path: path, Level: "loud"})
	require.Error(t, err)
}
