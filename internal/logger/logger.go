// Package logger is the process-wide logging facade: one slog text stream
// shared by every package. The level and destination stay mutable at runtime
// so main can redirect the stream into a log file after config load.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	level   slog.LevelVar
	current atomic.Pointer[slog.Logger]
)

func init() {
	level.Set(slog.LevelInfo)
	current.Store(textLogger(os.Stdout))
}

func textLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
}

// ParseLevel maps a config level string onto a slog level. Unknown strings
// report false and map to info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevel applies a config level string; unknown values fall back to info.
func SetLevel(s string) {
	lv, _ := ParseLevel(s)
	level.Set(lv)
}

// SetOutput swaps the stream's destination, e.g. an io.MultiWriter once the
// log file is open. Records already in flight finish on the old writer.
func SetOutput(w io.Writer) {
	current.Store(textLogger(w))
}

func emit(lv slog.Level, format string, args []any) {
	l := current.Load()
	if !l.Enabled(context.Background(), lv) {
		return
	}
	l.Log(context.Background(), lv, fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) { emit(slog.LevelDebug, format, args) }

func Infof(format string, args ...any) { emit(slog.LevelInfo, format, args) }

func Warnf(format string, args ...any) { emit(slog.LevelWarn, format, args) }

func Errorf(format string, args ...any) { emit(slog.LevelError, format, args) }
