package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// SessionStatus is the state of a single workout.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusSkipped   SessionStatus = "SKIPPED"
)

// ParseSessionStatus converts a string into a SessionStatus.
func ParseSessionStatus(value string) (SessionStatus, error) {
	switch s := SessionStatus(value); s {
	case SessionStatusPending, SessionStatusCompleted, SessionStatusSkipped:
		return s, nil
	default:
		return "", sharedDomain.Invariantf("invalid session status: %q", value)
	}
}

// WorkoutSession is one scheduled workout inside a plan.
type WorkoutSession struct {
	sharedDomain.BaseEntity
	name          string
	scheduledDate time.Time
	exercises     []PlannedExercise
	status        SessionStatus
	completedAt   *time.Time
	notes         string
}

// NewWorkoutSession creates a pending session.
func NewWorkoutSession(name string, scheduledDate time.Time, exercises []PlannedExercise) (*WorkoutSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, sharedDomain.Invariantf("session name cannot be blank")
	}
	if exercises == nil {
		exercises = make([]PlannedExercise, 0)
	}
	return &WorkoutSession{
		BaseEntity:    sharedDomain.NewBaseEntity(),
		name:          name,
		scheduledDate: sharedDomain.DateOf(scheduledDate),
		exercises:     exercises,
		status:        SessionStatusPending,
	}, nil
}

// RehydrateWorkoutSession recreates a session from persisted state.
func RehydrateWorkoutSession(
	id int64,
	name string,
	scheduledDate time.Time,
	exercises []PlannedExercise,
	status SessionStatus,
	completedAt *time.Time,
	notes string,
) *WorkoutSession {
	if exercises == nil {
		exercises = make([]PlannedExercise, 0)
	}
	return &WorkoutSession{
		BaseEntity:    sharedDomain.RehydrateBaseEntity(id, time.Time{}, time.Time{}),
		name:          name,
		scheduledDate: scheduledDate,
		exercises:     exercises,
		status:        status,
		completedAt:   completedAt,
		notes:         notes,
	}
}

func (s *WorkoutSession) Name() string                 { return s.name }
func (s *WorkoutSession) ScheduledDate() time.Time     { return s.scheduledDate }
func (s *WorkoutSession) Exercises() []PlannedExercise { return s.exercises }
func (s *WorkoutSession) Status() SessionStatus        { return s.status }
func (s *WorkoutSession) CompletedAt() *time.Time      { return s.completedAt }
func (s *WorkoutSession) Notes() string                { return s.notes }

// Complete marks a pending session done at now.
func (s *WorkoutSession) Complete(notes *string, now time.Time) error {
	if s.status != SessionStatusPending {
		return sharedDomain.Invariantf("cannot complete a session in status %s", s.status)
	}
	at := now.UTC()
	s.status = SessionStatusCompleted
	s.completedAt = &at
	if notes != nil {
		s.notes = *notes
	}
	s.Touch()
	return nil
}

// Skip marks a pending session skipped.
func (s *WorkoutSession) Skip() error {
	if s.status != SessionStatusPending {
		return sharedDomain.Invariantf("cannot skip a session in status %s", s.status)
	}
	s.status = SessionStatusSkipped
	s.Touch()
	return nil
}

// IsDone reports whether the session no longer waits to be trained.
func (s *WorkoutSession) IsDone() bool {
	return s.status == SessionStatusCompleted || s.status == SessionStatusSkipped
}
