package database

import (
	"fmt"
	"time"
)

// TimestampLayout is how timestamps are written as query parameters.
const TimestampLayout = "2006-01-02 15:04:05.999999999-07:00"

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// FormatTimestamp renders t in UTC for storage.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a timestamp returned by either driver through CAST(col AS TEXT).
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", value)
}

// FormatNullableTimestamp is FormatTimestamp for optional columns.
func FormatNullableTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}

// ParseNullableTimestamp is ParseTimestamp for optional columns.
func ParseNullableTimestamp(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := ParseTimestamp(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
