// Package postgres implements domain.Repository with pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/gym/internal/domain"
)

// DBTX is the connection handle the repository runs statements on. pgx.Tx,
// *pgx.Conn and *pgxpool.Pool all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides Postgres-backed persistence for members and workout sessions.
type Repository struct {
	db DBTX
}

// NewRepository constructs a Repository bound to db.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const (
	insertMember = `INSERT INTO members (id, name, age) VALUES ($1, $2, $3)`

	insertWorkoutSession = `INSERT INTO workout_sessions (session_id, member_id, session_date, session_time, activity)
        VALUES ($1, $2, $3, $4, $5)`

	countMember   = `SELECT COUNT(*) FROM members WHERE id = $1`
	updateAge     = `UPDATE members SET age = $1 WHERE id = $2`
	countSession  = `SELECT COUNT(*) FROM workout_sessions WHERE session_id = $1`
	deleteSession = `DELETE FROM workout_sessions WHERE session_id = $1`

	selectMembersBetween = `SELECT id, name, age FROM members WHERE age BETWEEN $1 AND $2 ORDER BY id`
	selectMember         = `SELECT id, name, age FROM members WHERE id = $1`
	selectSession        = `SELECT session_id, member_id, session_date, session_time, activity
        FROM workout_sessions WHERE session_id = $1`
)

// AddMember inserts a member. Duplicate ids are rejected by the primary key.
func (r *Repository) AddMember(ctx context.Context, member domain.Member) error {
	if _, err := r.db.Exec(ctx, insertMember, member.ID, member.Name, member.Age); err != nil {
		return fmt.Errorf("add member %d: %w", member.ID, translate(err))
	}
	return nil
}

// AddWorkoutSession inserts a workout session. member_id is not checked.
func (r *Repository) AddWorkoutSession(ctx context.Context, session domain.WorkoutSession) error {
	_, err := r.db.Exec(ctx, insertWorkoutSession,
		session.SessionID,
		session.MemberID,
		session.SessionDate,
		session.SessionTime,
		session.Activity,
	)
	if err != nil {
		return fmt.Errorf("add workout session %d: %w", session.SessionID, translate(err))
	}
	return nil
}

// UpdateMemberAge checks the member exists, then updates its age.
func (r *Repository) UpdateMemberAge(ctx context.Context, memberID int64, age int) error {
	exists, err := r.exists(ctx, countMember, memberID)
	if err != nil {
		return fmt.Errorf("check member %d: %w", memberID, translate(err))
	}
	if !exists {
		return domain.ErrMemberNotFound
	}

	if _, err := r.db.Exec(ctx, updateAge, age, memberID); err != nil {
		return fmt.Errorf("update member %d age: %w", memberID, translate(err))
	}
	return nil
}

// DeleteWorkoutSession checks the session exists, then deletes it.
func (r *Repository) DeleteWorkoutSession(ctx context.Context, sessionID int64) error {
	exists, err := r.exists(ctx, countSession, sessionID)
	if err != nil {
		return fmt.Errorf("check workout session %d: %w", sessionID, translate(err))
	}
	if !exists {
		return domain.ErrSessionNotFound
	}

	if _, err := r.db.Exec(ctx, deleteSession, sessionID); err != nil {
		return fmt.Errorf("delete workout session %d: %w", sessionID, translate(err))
	}
	return nil
}

// MembersInAgeRange returns members with ages.Min <= age <= ages.Max ordered by id.
func (r *Repository) MembersInAgeRange(ctx context.Context, ages domain.AgeRange) ([]domain.Member, error) {
	rows, err := r.db.Query(ctx, selectMembersBetween, ages.Min, ages.Max)
	if err != nil {
		return nil, fmt.Errorf("query members between %d and %d: %w", ages.Min, ages.Max, translate(err))
	}
	defer rows.Close()

	results := make([]domain.Member, 0)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Age); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query members between %d and %d: %w", ages.Min, ages.Max, translate(err))
	}
	return results, nil
}

// GetMember returns nil, nil when no member has the id.
func (r *Repository) GetMember(ctx context.Context, memberID int64) (*domain.Member, error) {
	var m domain.Member
	if err := r.db.QueryRow(ctx, selectMember, memberID).Scan(&m.ID, &m.Name, &m.Age); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member %d: %w", memberID, translate(err))
	}
	return &m, nil
}

// GetWorkoutSession returns nil, nil when no session has the id.
func (r *Repository) GetWorkoutSession(ctx context.Context, sessionID int64) (*domain.WorkoutSession, error) {
	var s domain.WorkoutSession
	err := r.db.QueryRow(ctx, selectSession, sessionID).Scan(&s.SessionID, &s.MemberID, &s.SessionDate, &s.SessionTime, &s.Activity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workout session %d: %w", sessionID, translate(err))
	}
	return &s, nil
}

func (r *Repository) exists(ctx context.Context, query string, id int64) (bool, error) {
	var count int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
