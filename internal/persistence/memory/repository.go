// Package memory keeps members and sessions in process memory for local
// development and tests. It follows the same outcome rules as the Postgres
// repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"example.com/gym/internal/domain"
)

// Repository implements domain.Repository over two maps.
type Repository struct {
	mu       sync.RWMutex
	members  map[int64]domain.Member
	sessions map[int64]domain.WorkoutSession
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		members:  make(map[int64]domain.Member),
		sessions: make(map[int64]domain.WorkoutSession),
	}
}

// AddMember implements domain.Repository.
func (r *Repository) AddMember(_ context.Context, member domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[member.ID]; ok {
		return fmt.Errorf("add member %d: %w", member.ID, domain.ErrAlreadyExists)
	}
	r.members[member.ID] = member
	return nil
}

// AddWorkoutSession implements domain.Repository.
func (r *Repository) AddWorkoutSession(_ context.Context, session domain.WorkoutSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.SessionID]; ok {
		return fmt.Errorf("add workout session %d: %w", session.SessionID, domain.ErrAlreadyExists)
	}
	r.sessions[session.SessionID] = session
	return nil
}

// UpdateMemberAge implements domain.Repository.
func (r *Repository) UpdateMemberAge(_ context.Context, memberID int64, age int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[memberID]
	if !ok {
		return domain.ErrMemberNotFound
	}
	member.Age = age
	r.members[memberID] = member
	return nil
}

// DeleteWorkoutSession implements domain.Repository.
func (r *Repository) DeleteWorkoutSession(_ context.Context, sessionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	return nil
}

// MembersInAgeRange implements domain.Repository.
func (r *Repository) MembersInAgeRange(_ context.Context, ages domain.AgeRange) ([]domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0)
	for _, m := range r.members {
		if ages.Contains(m.Age) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetMember implements domain.Repository.
func (r *Repository) GetMember(_ context.Context, memberID int64) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	member, ok := r.members[memberID]
	if !ok {
		return nil, nil
	}
	return &member, nil
}

// GetWorkoutSession implements domain.Repository.
func (r *Repository) GetWorkoutSession(_ context.Context, sessionID int64) (*domain.WorkoutSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &session, nil
}
