package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, ...Event) error {
	p.calls++
	return errors.New("broker down")
}

func TestNewStampsEvent(t *testing.T) {
	evt := New(TypeMemberCreated, 42, MemberCreated{MemberID: 42, Name: "Ann", Age: 20})
	require.NotEmpty(t, evt.ID)
	require.Equal(t, "42", evt.AggregateID)
	require.Equal(t, TypeMemberCreated, evt.Type)
	require.False(t, evt.OccurredAt.IsZero())
}

func TestKafkaPublisherEncodesEnvelope(t *testing.T) {
	w := &stubWriter{}
	p := &KafkaPublisher{writer: w}

	evt := New(TypeWorkoutSessionDeleted, 3, WorkoutSessionDeleted{SessionID: 3})
	require.NoError(t, p.Publish(context.Background(), evt))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "3", string(msg.Key))
	require.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte("workout_session.deleted")},
		{Key: "event_id", Value: []byte(evt.ID)},
	}, msg.Headers)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	require.Equal(t, evt.ID, body["event_id"])
	require.Equal(t, "workout_session.deleted", body["event_type"])
	require.Equal(t, map[string]interface{}{"session_id": float64(3)}, body["payload"])

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestKafkaPublisherSkipsEmptyAndPropagatesErrors(t *testing.T) {
	w := &stubWriter{err: errors.New("leader not available")}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Publish(context.Background()))
	require.EqualError(t, p.Publish(context.Background(), New(TypeMemberAgeUpdated, 5, MemberAgeUpdated{MemberID: 5, Age: 26})), "leader not available")
}

func TestKafkaPublisherRejectsUnencodablePayload(t *testing.T) {
	w := &stubWriter{}
	p := &KafkaPublisher{writer: w}

	err := p.Publish(context.Background(), New(TypeMemberCreated, 1, make(chan int)))
	require.Error(t, err)
	require.Empty(t, w.msgs)
}

func TestBufferFlush(t *testing.T) {
	ctx := context.Background()
	var buf, dst Buffer

	require.NoError(t, buf.Flush(ctx, &dst))

	require.NoError(t, buf.Publish(ctx, New(TypeMemberCreated, 1, nil), New(TypeMemberCreated, 2, nil)))
	require.Equal(t, 2, buf.Len())

	failing := &failingPublisher{}
	require.Error(t, buf.Flush(ctx, failing))
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 2, buf.Len())

	require.NoError(t, buf.Flush(ctx, &dst))
	require.Equal(t, 0, buf.Len())
	require.Equal(t, 2, dst.Len())

	dst.Reset()
	require.Equal(t, 0, dst.Len())
}

func TestDiscard(t *testing.T) {
	require.NoError(t, Discard{}.Publish(context.Background(), New(TypeMemberCreated, 1, nil)))
}
