package timeutil

import (
	"strings"
	"time"
)

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates and returns UTC.
// A bare date is midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, value)
}

// ParseOptionalDate parses value when it is set. Nil or blank input yields nil.
func ParseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := ParseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
