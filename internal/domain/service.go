// Package domain defines the gym membership model and the operations on it.
package domain

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"example.com/gym/internal/events"
	"example.com/gym/internal/observability"
)

const (
	opAddMember         = "add_member"
	opAddWorkoutSession = "add_workout_session"
	opUpdateMemberAge   = "update_member_age"
	opDeleteSession     = "delete_workout_session"
	opMembersInAgeRange = "members_in_age_range"
	opGetMember         = "get_member"
	opGetWorkoutSession = "get_workout_session"
)

// Repository captures persistence operations.
type Repository interface {
	AddMember(ctx context.Context, member Member) error
	AddWorkoutSession(ctx context.Context, session WorkoutSession) error
	UpdateMemberAge(ctx context.Context, memberID int64, age int) error
	DeleteWorkoutSession(ctx context.Context, sessionID int64) error
	MembersInAgeRange(ctx context.Context, r AgeRange) ([]Member, error)
	GetMember(ctx context.Context, memberID int64) (*Member, error)
	GetWorkoutSession(ctx context.Context, sessionID int64) (*WorkoutSession, error)
}

// Service validates input before calling the repository and reports every
// outcome it sees. It never swallows an error.
type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewService constructs a Service. A nil publisher discards events.
func NewService(repo Repository, publisher events.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// AddMember inserts a member. A taken id yields ErrAlreadyExists.
func (s *Service) AddMember(ctx context.Context, member Member) error {
	start := time.Now()
	err := member.Validate()
	if err == nil {
		err = s.repo.AddMember(ctx, member)
	}
	s.record(opAddMember, start, err)
	if err != nil {
		s.failure(err).Int64("member_id", member.ID).Msg("error adding member")
		return err
	}

	s.logger.Info().Int64("member_id", member.ID).Str("name", member.Name).Msg("member added")
	s.publish(ctx, events.New(events.TypeMemberCreated, member.ID, events.MemberCreated{
		MemberID: member.ID,
		Name:     member.Name,
		Age:      member.Age,
	}))
	return nil
}

// AddWorkoutSession inserts a workout session.
func (s *Service) AddWorkoutSession(ctx context.Context, session WorkoutSession) error {
	start := time.Now()
	err := session.Validate()
	if err == nil {
		err = s.repo.AddWorkoutSession(ctx, session)
	}
	s.record(opAddWorkoutSession, start, err)
	if err != nil {
		s.failure(err).Int64("session_id", session.SessionID).Int64("member_id", session.MemberID).Msg("error adding workout session")
		return err
	}

	s.logger.Info().Int64("session_id", session.SessionID).Int64("member_id", session.MemberID).Msg("workout session added")
	s.publish(ctx, events.New(events.TypeWorkoutSessionCreated, session.SessionID, events.WorkoutSessionCreated{
		SessionID:   session.SessionID,
		MemberID:    session.MemberID,
		SessionDate: session.SessionDate.Format(DateLayout),
		SessionTime: session.SessionTime,
		Activity:    session.Activity,
	}))
	return nil
}

// UpdateMemberAge sets a member's age. Unknown ids yield ErrMemberNotFound.
func (s *Service) UpdateMemberAge(ctx context.Context, memberID int64, age int) error {
	start := time.Now()
	err := validateAge(age)
	if err == nil {
		err = s.repo.UpdateMemberAge(ctx, memberID, age)
	}
	s.record(opUpdateMemberAge, start, err)
	if err != nil {
		s.failure(err).Int64("member_id", memberID).Int("age", age).Msg("error updating member age")
		return err
	}

	s.logger.Info().Int64("member_id", memberID).Int("age", age).Msg("member age updated")
	s.publish(ctx, events.New(events.TypeMemberAgeUpdated, memberID, events.MemberAgeUpdated{
		MemberID: memberID,
		Age:      age,
	}))
	return nil
}

// DeleteWorkoutSession removes a session. Unknown ids yield ErrSessionNotFound.
func (s *Service) DeleteWorkoutSession(ctx context.Context, sessionID int64) error {
	start := time.Now()
	err := s.repo.DeleteWorkoutSession(ctx, sessionID)
	s.record(opDeleteSession, start, err)
	if err != nil {
		s.failure(err).Int64("session_id", sessionID).Msg("error deleting workout session")
		return err
	}

	s.logger.Info().Int64("session_id", sessionID).Msg("workout session deleted")
	s.publish(ctx, events.New(events.TypeWorkoutSessionDeleted, sessionID, events.WorkoutSessionDeleted{
		SessionID: sessionID,
	}))
	return nil
}

// MembersInAgeRange lists members with r.Min <= age <= r.Max. An empty
// result is not an error.
func (s *Service) MembersInAgeRange(ctx context.Context, r AgeRange) ([]Member, error) {
	start := time.Now()
	var members []Member
	err := r.Validate()
	if err == nil {
		members, err = s.repo.MembersInAgeRange(ctx, r)
	}
	s.record(opMembersInAgeRange, start, err)
	if err != nil {
		s.failure(err).Int("start_age", r.Min).Int("end_age", r.Max).Msg("error retrieving members")
		return nil, err
	}

	if len(members) == 0 {
		s.logger.Info().Int("start_age", r.Min).Int("end_age", r.Max).Msg("no members found in age range")
		return members, nil
	}
	for _, m := range members {
		s.logger.Info().Int64("member_id", m.ID).Str("name", m.Name).Int("age", m.Age).Msg("member in age range")
	}
	s.logger.Info().Int("start_age", r.Min).Int("end_age", r.Max).Int("count", len(members)).Msg("members in age range")
	return members, nil
}

// GetMember fetches a member by id.
func (s *Service) GetMember(ctx context.Context, memberID int64) (*Member, error) {
	start := time.Now()
	member, err := s.repo.GetMember(ctx, memberID)
	if err == nil && member == nil {
		err = ErrMemberNotFound
	}
	s.record(opGetMember, start, err)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// GetWorkoutSession fetches a session by id.
func (s *Service) GetWorkoutSession(ctx context.Context, sessionID int64) (*WorkoutSession, error) {
	start := time.Now()
	session, err := s.repo.GetWorkoutSession(ctx, sessionID)
	if err == nil && session == nil {
		err = ErrSessionNotFound
	}
	s.record(opGetWorkoutSession, start, err)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) record(op string, start time.Time, err error) {
	observability.RecordOperation(op, Classify(err).String(), time.Since(start))
}

// failure starts a log line at warn for not-found and error for everything else.
func (s *Service) failure(err error) *zerolog.Event {
	outcome := Classify(err)
	evt := s.logger.Error()
	if outcome == OutcomeNotFound {
		evt = s.logger.Warn()
	}
	return evt.Err(err).Str("outcome", outcome.String())
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		observability.RecordPublishFailure(1)
		s.logger.Error().Err(err).Str("event_type", string(evt.Type)).Str("aggregate_id", evt.AggregateID).Msg("publish change event")
	}
}
