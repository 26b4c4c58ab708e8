package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, cfg LogConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	require.NoError(t, InitWithConfig(cfg))
	t.Cleanup(func() { _ = InitWithConfig(LogConfig{Level: "INFO", Format: "json"}) })
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LogConfig{Level: "WARN", Format: "json"})
	ctx := context.Background()

	Info(ctx, "hidden")
	Warn(ctx, "shown", "account", "primary")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["msg"])
	assert.Equal(t, "primary", got[0]["account"])
}

func TestDebugNeedsDetailedLogging(t *testing.T) {
	buf := capture(t, LogConfig{Level: "DEBUG", Format: "json"})
	Debug(context.Background(), "quiet")
	assert.Empty(t, buf.String())

	buf = capture(t, LogConfig{Level: "DEBUG", Format: "json", DetailedLogging: true})
	Debug(context.Background(), "loud")
	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "source")
}

func TestErrorWithErr(t *testing.T) {
	buf := capture(t, LogConfig{Level: "INFO", Format: "json"})
	ErrorWithErr(context.Background(), "fetch failed", errors.New("boom"), "account", "primary")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0]["error"])
	assert.Equal(t, "ERROR", got[0]["level"])
}

func TestLedgerEvent(t *testing.T) {
	buf := capture(t, LogConfig{Level: "ERROR", Format: "json"})
	Ledger(context.Background(), "primary", 3, 1, 0, "942.1")

	// ledger events are info level, so an ERROR threshold hides them
	assert.Empty(t, buf.String())

	buf = capture(t, LogConfig{Level: "INFO", Format: "json"})
	Ledger(context.Background(), "primary", 3, 1, 0, "942.1")
	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "LEDGER", got[0]["type"])
	assert.Equal(t, float64(3), got[0]["rows"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
}
