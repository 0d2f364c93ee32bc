package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound is returned when a username has not been registered.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoPendingQuestion is returned when grading a session whose tail is not awaiting an answer.
	ErrNoPendingQuestion = errors.New("no question awaiting an answer")
	// ErrAnswerPending is returned when asking for a new question before the last one is graded.
	ErrAnswerPending = errors.New("previous question has not been answered")
	// ErrSessionConcluded is returned for any mutation after conclusion.
	ErrSessionConcluded = errors.New("session already concluded")
	// ErrUserExists is returned when registering a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrUsernameRejected is returned when moderation refuses a username.
	ErrUsernameRejected = errors.New("username rejected")

	// ErrDuplicateQuestion is returned when the oracle keeps repeating questions and
	// the prefix fallback is disabled.
	ErrDuplicateQuestion = errors.New("oracle returned only duplicate questions")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Upstream operations.
const (
	OpGeneration = "generation"
	OpGrading    = "grading"
	OpSummary    = "summary"
	OpModeration = "moderation"
)

// UpstreamError wraps a failed or unparseable oracle call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s failed", e.Op)
	}
	return fmt.Sprintf("oracle %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsNotFound reports whether err refers to a missing session or user.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrUserNotFound)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUpstream reports whether err originates from an oracle.
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u) || errors.Is(err, ErrDuplicateQuestion)
}

// IsInvariant reports whether err is a state machine violation.
func IsInvariant(err error) bool {
	for _, target := range []error{ErrNoPendingQuestion, ErrAnswerPending, ErrSessionConcluded, ErrUserExists, ErrUsernameRejected} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
