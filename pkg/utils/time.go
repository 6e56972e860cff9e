package utils

import "time"

// FormatTimestamp renders a time as RFC3339 with milliseconds, in UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ParseRFC3339 parses a time string in RFC3339 format
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// MillisUntil returns the whole milliseconds left until t, never negative
func MillisUntil(now, t time.Time) int64 {
	if !t.After(now) {
		return 0
	}
	return t.Sub(now).Milliseconds()
}
