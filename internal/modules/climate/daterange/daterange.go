// Package daterange validates user-supplied dates against the dataset.
package daterange

import (
	"errors"
	"fmt"
	"time"

	"github.com/dancab13/sqlalchemy-challenge/internal/modules/climate/types"
)

var (
	ErrMalformedDate = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrOutOfRange    = errors.New("date is out of data set range")
	ErrInvertedRange = errors.New("start date is after end date")
)

// Parse reads a calendar date in YYYY-MM-DD form.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// Check reports whether start, and end when given, fall inside bounds
// (inclusive) and are in order. Start is checked before end.
func Check(bounds types.DateBounds, start time.Time, end *time.Time) error {
	if !within(bounds, start) {
		return fmt.Errorf("start %s: %w", start.Format(types.DateLayout), ErrOutOfRange)
	}
	if end == nil {
		return nil
	}
	if !within(bounds, *end) {
		return fmt.Errorf("end %s: %w", end.Format(types.DateLayout), ErrOutOfRange)
	}
	if start.After(*end) {
		return fmt.Errorf("%s > %s: %w", start.Format(types.DateLayout), end.Format(types.DateLayout), ErrInvertedRange)
	}
	return nil
}

func within(b types.DateBounds, t time.Time) bool {
	return !t.Before(b.Min) && !t.After(b.Max)
}
