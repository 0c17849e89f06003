package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of WorkoutSession.SessionDate.
const DateLayout = "2006-01-02"

// Member is a row of the members table.
type Member struct {
	ID   int64
	Name string
	Age  int
}

// Validate checks the fields the database does not constrain.
func (m Member) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: member id must be > 0", ErrInvalidInput)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	return validateAge(m.Age)
}

// WorkoutSession is a row of the workout_sessions table. MemberID is expected
// to reference an existing member but nothing checks it.
type WorkoutSession struct {
	SessionID   int64
	MemberID    int64
	SessionDate time.Time
	SessionTime string
	Activity    string
}

// Validate checks the fields the database does not constrain.
func (s WorkoutSession) Validate() error {
	if s.SessionID <= 0 {
		return fmt.Errorf("%w: session id must be > 0", ErrInvalidInput)
	}
	if s.MemberID <= 0 {
		return fmt.Errorf("%w: member id must be > 0", ErrInvalidInput)
	}
	if s.SessionDate.IsZero() {
		return fmt.Errorf("%w: session date is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.SessionTime) == "" {
		return fmt.Errorf("%w: session time is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.Activity) == "" {
		return fmt.Errorf("%w: activity is required", ErrInvalidInput)
	}
	return nil
}

// ParseSessionDate parses a YYYY-MM-DD date into a UTC midnight time.
func ParseSessionDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: session date %q: %v", ErrInvalidInput, value, err)
	}
	return t, nil
}

// AgeRange is an inclusive age filter (SQL BETWEEN semantics).
type AgeRange struct {
	Min int
	Max int
}

// Contains reports whether Min <= age <= Max.
func (r AgeRange) Contains(age int) bool {
	return r.Min <= age && age <= r.Max
}

// Validate rejects inverted and negative ranges.
func (r AgeRange) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%w: ages must be >= 0", ErrInvalidInput)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: start age %d is greater than end age %d", ErrInvalidInput, r.Min, r.Max)
	}
	return nil
}

func validateAge(age int) error {
	if age < 0 {
		return fmt.Errorf("%w: age must be >= 0", ErrInvalidInput)
	}
	return nil
}
