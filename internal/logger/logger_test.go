package logger

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetAfter(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("info")
	})
}

func TestSetOutput_RedirectsStream(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	SetOutput(&buf)

	Infof("session %s opened", "abc")
	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "session abc opened")
	assert.Contains(t, out, "level=INFO")
}

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("warn")

	Debugf("noise")
	Infof("also noise")
	Warnf("kept")
	Errorf("also kept")

	out := buf.String()
	assert.NotContains(t, out, "noise")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "level=ERROR")
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{" Warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"ERROR", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		t.Run("level "+tc.in, func(t *testing.T) {
			got, ok := ParseLevel(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestSetLevel_UnknownFallsBackToInfo(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("verbose")

	Debugf("hidden")
	Infof("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}
