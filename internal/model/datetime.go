package model

import (
	"errors"
	"strings"
	"time"
)

// DateTimeLayout is the stored form of Meal.DateTime. It is fixed-width UTC,
// so comparing two stored values as strings orders them chronologically.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidDateTime is returned for input that matches no accepted layout.
var ErrInvalidDateTime = errors.New("invalid date-time")

// Accepted client layouts, tried in order. Layouts without a zone are read
// as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses a client-supplied date-time and converts it to UTC.
// "2024-03-10T08:00:00-03:00" and "2024-03-10T11:00:00Z" are the same
// instant and parse to the same value.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDateTime
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDateTime
}

// FormatDateTime renders t in DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// NormalizeDateTime parses s and returns its stored form.
func NormalizeDateTime(s string) (string, error) {
	t, err := ParseDateTime(s)
	if err != nil {
		return "", err
	}
	return FormatDateTime(t), nil
}
