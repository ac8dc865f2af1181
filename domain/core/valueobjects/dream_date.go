package valueobjects

import (
	"time"

	pkgerrors "github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// DreamDate is a value object holding the calendar date of a dream entry.
// Entries whose date could not be parsed carry a synthetic fallback date
// flagged as inferred, so the chronological force can still apply nominal
// drift while the render layer distinguishes them visually.
type DreamDate struct {
	date     time.Time
	inferred bool
}

// NewDreamDate creates a date parsed from the entry itself
func NewDreamDate(date time.Time) (DreamDate, error) {
	if date.IsZero() {
		return DreamDate{}, pkgerrors.NewValidationError("dream date cannot be zero")
	}
	return DreamDate{date: date.Truncate(24 * time.Hour)}, nil
}

// NewInferredDreamDate creates a synthetic fallback date for entries with
// no parseable date. The fallback is position-only and never persisted.
func NewInferredDreamDate(fallback time.Time) (DreamDate, error) {
	if fallback.IsZero() {
		return DreamDate{}, pkgerrors.NewValidationError("fallback date cannot be zero")
	}
	return DreamDate{date: fallback.Truncate(24 * time.Hour), inferred: true}, nil
}

// Time returns the calendar date
func (d DreamDate) Time() time.Time {
	return d.date
}

// Inferred reports whether the date is a synthetic fallback
func (d DreamDate) Inferred() bool {
	return d.inferred
}

// Before reports whether d falls before other
func (d DreamDate) Before(other DreamDate) bool {
	return d.date.Before(other.date)
}

// Normalized maps the date into [0,1] within the given range.
// Degenerate ranges collapse to the midpoint.
func (d DreamDate) Normalized(min, max time.Time) float64 {
	span := max.Sub(min)
	if span <= 0 {
		return 0.5
	}
	frac := float64(d.date.Sub(min)) / float64(span)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// Equals checks if two dream dates are equal
func (d DreamDate) Equals(other DreamDate) bool {
	return d.date.Equal(other.date) && d.inferred == other.inferred
}
