package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer SetLevel("INFO")

	SetLevel("warn")
	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
}

func TestSetLevel_IgnoresUnknown(t *testing.T) {
	defer SetLevel("INFO")

	SetLevel("ERROR")
	SetLevel("verbose")
	assert.Equal(t, LevelError, GetLevel())
}

func TestConfigure_File(t *testing.T) {
	defer func() { _ = Configure("INFO", "stdout") }()

	path := filepath.Join(t.TempDir(), "nfsfh.log")
	require.NoError(t, Configure("debug", path))

	Debug("search for %s", "/a/b")

	// Switching back closes the file so its contents are flushed.
	require.NoError(t, Configure("INFO", "stdout"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[DEBUG] search for /a/b"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warn", LevelWarn, true},
		{"error", LevelError, true},
		{"trace", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
