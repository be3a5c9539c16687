package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseInterval(t *testing.T) {
	cases := []struct {
		tag  string
		want time.Duration
		ok   bool
	}{
		{"1min", time.Minute, true},
		{"5min", 5 * time.Minute, true},
		{"15min", 15 * time.Minute, true},
		{"30min", 30 * time.Minute, true},
		{"1hour", time.Hour, true},
		{"1day", 24 * time.Hour, true},
		{"2hour", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		d, ok := ParseInterval(tc.tag)
		assert.Equal(t, tc.ok, ok, tc.tag)
		assert.Equal(t, tc.want, d, tc.tag)
	}
}

func TestKnownIntervalsAreAllValid(t *testing.T) {
	for _, tag := range KnownIntervals() {
		assert.True(t, IsValidInterval(tag), tag)
	}
}

func TestWait_CancelledContextReturnsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Wait(ctx, "1hour")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
