package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches the given code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrParticipantNotFound is returned when a participant acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrUserNotFound is returned for unknown host accounts.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotHost is returned when a host-only action comes from another identity.
	ErrNotHost = errors.New("caller is not the session host")
	// ErrInvalidStatus is returned for unknown status strings.
	ErrInvalidStatus = errors.New("invalid session status")
	// ErrInvalidTransition is returned for backward or skipping lifecycle moves.
	ErrInvalidTransition = errors.New("invalid session status transition")
	// ErrSessionCompleted is returned when answers arrive after the session ended.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrQuestionRegression is returned when the host tries to move backward.
	ErrQuestionRegression = errors.New("question index may only advance")
	// ErrValidation covers missing or malformed required fields.
	ErrValidation = errors.New("validation failed")
)
