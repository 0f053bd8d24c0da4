package domain

import "fmt"

type Status string

const (
	Sleep Status = "sleep"
	In    Status = "in"
	Out   Status = "out"
)

// ParseStatus maps a persisted status string back to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Sleep, In, Out:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Member is one community member and their availability for the day.
// AvailableAt is only ever set while Status is In.
type Member struct {
	ID          string
	DisplayName string
	Status      Status
	AvailableAt *string
}

// Message is an inbound chat message, already stripped of transport details.
type Message struct {
	ID         int
	ChatID     int64
	AuthorID   string
	AuthorName string
	Text       string
}

// SameTime reports whether two optional HH:MM values are equal.
func SameTime(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// TimeOrEmpty renders an optional time for logs and messages.
func TimeOrEmpty(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}
