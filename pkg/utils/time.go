package utils

import (
	"time"

	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// ParseTimeParam parses an optional query parameter given either as RFC3339
// or as a plain date. A plain date is midnight in loc, or the last instant
// of that day when endOfDay is set. An empty value yields nil.
func ParseTimeParam(name, value string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return nil, pkgerrors.NewValidationError(name + " must be a date (YYYY-MM-DD) or an RFC3339 timestamp")
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// FormatRFC3339 formats t in UTC
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
