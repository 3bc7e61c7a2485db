package domain

import "fmt"

// SessionStatus is the server-authoritative session lifecycle state.
// Transitions are linear: Waiting -> Active -> Completed. Completed is final.
type SessionStatus string

const (
	StatusWaiting   SessionStatus = "Waiting"
	StatusActive    SessionStatus = "Active"
	StatusCompleted SessionStatus = "Completed"
)

// ParseSessionStatus validates a raw status string.
func ParseSessionStatus(raw string) (SessionStatus, error) {
	switch SessionStatus(raw) {
	case StatusWaiting, StatusActive, StatusCompleted:
		return SessionStatus(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// CanTransition reports whether moving to next is a legal forward step.
// No backward transitions, no skipping.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case StatusWaiting:
		return next == StatusActive
	case StatusActive:
		return next == StatusCompleted
	}
	return false
}

// Terminal reports whether the session accepts no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted
}
