package handlers

import (
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

const dateAskedLayout = "2006-01-02T15:04:05"

// parseFlexibleDate interprets a value as an epoch-millisecond integer
// first and falls back to generic date-string parsing.
func parseFlexibleDate(value string) (time.Time, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return dateparse.ParseAny(value)
}

// deriveDateAsked computes the display timestamp from the stored ets value.
// Parsing failures are swallowed: the result is nil, never an error.
func deriveDateAsked(ets *string) *string {
	if ets == nil || *ets == "" {
		return nil
	}
	t, err := parseFlexibleDate(*ets)
	if err != nil {
		return nil
	}
	s := t.UTC().Format(dateAskedLayout)
	return &s
}
