package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONEntries(t *testing.T) {
	var term, file bytes.Buffer
	l := New(&term, &file)

	l.Info("order", "created order abc")
	l.Error("email", "smtp down")

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	require.Len(t, lines, 2)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "ORDER", entry.Category)
	assert.Equal(t, "created order abc", entry.Message)
	assert.Equal(t, "logger_test.go", entry.File)

	assert.Contains(t, term.String(), "[EMAIL     ] smtp down")
}

func TestLogger_MinLevel(t *testing.T) {
	var file bytes.Buffer
	l := New(nil, &file)
	l.minLevel = WARN

	l.Debug("x", "dropped")
	l.Info("x", "dropped")
	l.Warn("x", "kept")

	assert.Equal(t, 1, strings.Count(file.String(), "\n"))
	assert.Contains(t, file.String(), "kept")
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, ERROR, levelFromEnv())

	t.Setenv("LOG_LEVEL", "verbose")
	assert.Equal(t, DEBUG, levelFromEnv())

	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "INFO", LogLevel(42).String())
}
