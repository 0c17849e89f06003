package domain

import "errors"

var (
	// ErrNotFound is the parent of every not-found condition.
	ErrNotFound = errors.New("not found")
	// ErrMemberNotFound is returned when no member has the requested id.
	ErrMemberNotFound = notFound("member not found")
	// ErrSessionNotFound is returned when no workout session has the requested id.
	ErrSessionNotFound = notFound("workout session not found")
	// ErrAlreadyExists is returned when a primary key is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput is returned for values rejected before or by the database.
	ErrInvalidInput = errors.New("invalid input")
)

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Unwrap() error { return ErrNotFound }

// Outcome is the coarse result of a repository operation.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailure  Outcome = "failure"
)

// Classify maps an operation error to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeFailure
	}
}

func (o Outcome) String() string { return string(o) }
