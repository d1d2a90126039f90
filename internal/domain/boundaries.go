package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunBoundaries marks the inoculation and unloading instants of a run.
// Either side may be unknown.
type RunBoundaries struct {
	Start *time.Time
	End   *time.Time
}

// Hours returns the run length. ok is false when a boundary is missing or
// the end does not come after the start.
func (b RunBoundaries) Hours() (hours float64, ok bool) {
	if b.Start == nil || b.End == nil {
		return 0, false
	}
	if !b.End.After(*b.Start) {
		return 0, false
	}
	return b.End.Sub(*b.Start).Hours(), true
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant accepts the ISO-8601 shapes found in run exports, including
// seven-digit fractional seconds and zone-less values (taken as UTC).
func ParseInstant(raw string) (time.Time, error) {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// ParseBoundaries parses both boundaries. An empty string means unknown and is
// not an error; a value that cannot be parsed is left nil and reported in the
// returned error so callers can log it and carry on.
func ParseBoundaries(start, end string) (RunBoundaries, error) {
	var (
		b    RunBoundaries
		errs []error
	)
	if strings.TrimSpace(start) != "" {
		if t, err := ParseInstant(start); err != nil {
			errs = append(errs, fmt.Errorf("run start: %w", err))
		} else {
			b.Start = &t
		}
	}
	if strings.TrimSpace(end) != "" {
		if t, err := ParseInstant(end); err != nil {
			errs = append(errs, fmt.Errorf("run end: %w", err))
		} else {
			b.End = &t
		}
	}
	return b, errors.Join(errs...)
}
