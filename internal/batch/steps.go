package batch

import (
	"context"

	"example.com/gym/internal/domain"
)

// AddMember inserts one member.
func AddMember(member domain.Member) Step {
	return Step{Name: "add_member", Run: func(ctx context.Context, svc *domain.Service) error {
		return svc.AddMember(ctx, member)
	}}
}

// AddWorkoutSession inserts one workout session.
func AddWorkoutSession(session domain.WorkoutSession) Step {
	return Step{Name: "add_workout_session", Run: func(ctx context.Context, svc *domain.Service) error {
		return svc.AddWorkoutSession(ctx, session)
	}}
}

// UpdateMemberAge changes one member's age.
func UpdateMemberAge(memberID int64, age int) Step {
	return Step{Name: "update_member_age", Run: func(ctx context.Context, svc *domain.Service) error {
		return svc.UpdateMemberAge(ctx, memberID, age)
	}}
}

// DeleteWorkoutSession removes one workout session.
func DeleteWorkoutSession(sessionID int64) Step {
	return Step{Name: "delete_workout_session", Run: func(ctx context.Context, svc *domain.Service) error {
		return svc.DeleteWorkoutSession(ctx, sessionID)
	}}
}

// MembersInAgeRange queries members in ages and passes them to found, which
// may be nil.
func MembersInAgeRange(ages domain.AgeRange, found func([]domain.Member)) Step {
	return Step{Name: "members_in_age_range", Run: func(ctx context.Context, svc *domain.Service) error {
		members, err := svc.MembersInAgeRange(ctx, ages)
		if err != nil {
			return err
		}
		if found != nil {
			found(members)
		}
		return nil
	}}
}
