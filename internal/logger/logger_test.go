package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	var out bytes.Buffer
	Init(Options{Enabled: false, Writer: &out})
	Error("dropped", "k", 1)
	assert.Zero(t, out.Len())
	assert.False(t, Enabled(slog.LevelError))
}

func TestInitTextLevel(t *testing.T) {
	var out bytes.Buffer
	Init(Options{Enabled: true, Writer: &out, Level: slog.LevelWarn})
	t.Cleanup(func() { Init(Options{}) })

	Info("hidden")
	Warn("shown", "chunk", "0x1000")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=shown")
	assert.Contains(t, out.String(), "chunk=0x1000")
}

func TestInitJSON(t *testing.T) {
	var out bytes.Buffer
	Init(Options{Enabled: true, Writer: &out, Level: slog.LevelDebug, JSON: true})
	t.Cleanup(func() { Init(Options{}) })

	Debug("grow", "capacity", 65536)
	require.True(t, Enabled(slog.LevelDebug))
	assert.Contains(t, out.String(), `"msg":"grow"`)
	assert.Contains(t, out.String(), `"capacity":65536`)
}
