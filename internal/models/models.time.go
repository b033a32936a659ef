package models

import (
	"fmt"
	"time"
)

// ParseInstant parses the one timestamp form accepted at the boundary:
// RFC 3339 with an explicit zone offset ("Z" or "+hh:mm"). Naive timestamps
// are rejected rather than guessed. The result is in UTC.
func ParseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is not RFC 3339 with a zone offset", s)
	}
	return t.UTC(), nil
}

// ParseOptionalInstant is ParseInstant for optional fields; empty yields nil.
func ParseOptionalInstant(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseInstant(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
