// Package scheduler maps session interval tags onto wall-clock durations and
// provides the context-aware wait used between auto-trade turns.
package scheduler

import (
	"context"
	"time"
)

// DefaultInterval is the fallback cadence when a decision carries no usable
// next-poll interval.
const DefaultInterval = "1hour"

var intervalDurations = map[string]time.Duration{
	"1min":  time.Minute,
	"5min":  5 * time.Minute,
	"15min": 15 * time.Minute,
	"30min": 30 * time.Minute,
	"1hour": time.Hour,
	"1day":  24 * time.Hour,
}

// ParseInterval resolves an interval tag ("5min", "1hour") into a duration.
// Returns (0, false) for unknown tags.
func ParseInterval(interval string) (time.Duration, bool) {
	d, ok := intervalDurations[interval]
	return d, ok
}

// KnownIntervals lists the supported tags, shortest first.
func KnownIntervals() []string {
	return []string{"1min", "5min", "15min", "30min", "1hour", "1day"}
}

// IsValidInterval reports whether the tag names a supported cadence.
func IsValidInterval(interval string) bool {
	_, ok := intervalDurations[interval]
	return ok
}

// Wait sleeps for the given interval tag, falling back to DefaultInterval on
// an unknown tag. Returns early with ctx.Err() when the context is done.
func Wait(ctx context.Context, interval string) error {
	d, ok := intervalDurations[interval]
	if !ok {
		d = intervalDurations[DefaultInterval]
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
