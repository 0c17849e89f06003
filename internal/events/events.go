// Package events defines the change events emitted after successful writes.
package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names an event kind; it doubles as the Kafka event_type header.
type Type string

const (
	TypeMemberCreated         Type = "member.created"
	TypeMemberAgeUpdated      Type = "member.age_updated"
	TypeWorkoutSessionCreated Type = "workout_session.created"
	TypeWorkoutSessionDeleted Type = "workout_session.deleted"
)

// Event is one change notification.
type Event struct {
	ID          string
	Type        Type
	AggregateID string
	OccurredAt  time.Time
	Payload     interface{}
}

// New stamps an event with a fresh id and the current time.
func New(t Type, aggregateID int64, payload interface{}) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: strconv.FormatInt(aggregateID, 10),
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// MemberCreated is emitted when a member row is inserted.
type MemberCreated struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
}

// MemberAgeUpdated is emitted when a member's age changes.
type MemberAgeUpdated struct {
	MemberID int64 `json:"member_id"`
	Age      int   `json:"age"`
}

// WorkoutSessionCreated is emitted when a session row is inserted.
type WorkoutSessionCreated struct {
	SessionID   int64  `json:"session_id"`
	MemberID    int64  `json:"member_id"`
	SessionDate string `json:"session_date"`
	SessionTime string `json:"session_time"`
	Activity    string `json:"activity"`
}

// WorkoutSessionDeleted is emitted when a session row is removed.
type WorkoutSessionDeleted struct {
	SessionID int64 `json:"session_id"`
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
}

// Discard drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, ...Event) error { return nil }

// Buffer holds events until Flush. The batch runner uses it so nothing leaves
// the process before the transaction commits.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends to the buffer.
func (b *Buffer) Publish(_ context.Context, evts ...Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evts...)
	return nil
}

// Len returns the number of pending events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Flush hands every pending event to dst and empties the buffer. On error the
// events stay buffered.
func (b *Buffer) Flush(ctx context.Context, dst Publisher) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	if err := dst.Publish(ctx, b.events...); err != nil {
		return err
	}
	b.events = nil
	return nil
}

// Reset drops pending events.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
