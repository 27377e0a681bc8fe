package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

const aggregateType = "TrainingPlan"

// Routing keys for plan events.
const (
	RoutingKeyPlanCreated      = "plans.plan.created"
	RoutingKeyPlanActivated    = "plans.plan.activated"
	RoutingKeySessionCompleted = "plans.session.completed"
	RoutingKeyPlanCompleted    = "plans.plan.completed"
)

// PlanCreated is emitted when a plan is drafted.
type PlanCreated struct {
	sharedDomain.BaseEvent
	PlanID   int64 `json:"plan_id"`
	MemberID int64 `json:"member_id"`
	CoachID  int64 `json:"coach_id"`
}

// NewPlanCreated creates a PlanCreated event.
func NewPlanCreated(p *TrainingPlan) *PlanCreated {
	return &PlanCreated{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, RoutingKeyPlanCreated),
		PlanID:    p.ID(),
		MemberID:  p.memberID,
		CoachID:   p.coachID,
	}
}

// BindAggregateID fills the plan id once the plan is persisted.
func (e *PlanCreated) BindAggregateID(id int64) {
	e.BaseEvent.BindAggregateID(id)
	if e.PlanID == 0 {
		e.PlanID = id
	}
}

// PlanActivated is emitted when a plan starts.
type PlanActivated struct {
	sharedDomain.BaseEvent
	PlanID int64 `json:"plan_id"`
}

// NewPlanActivated creates a PlanActivated event.
func NewPlanActivated(p *TrainingPlan) *PlanActivated {
	return &PlanActivated{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, RoutingKeyPlanActivated),
		PlanID:    p.ID(),
	}
}

// SessionCompleted is emitted when a member finishes a workout.
type SessionCompleted struct {
	sharedDomain.BaseEvent
	PlanID      int64     `json:"plan_id"`
	SessionID   int64     `json:"session_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewSessionCompleted creates a SessionCompleted event.
func NewSessionCompleted(p *TrainingPlan, s *WorkoutSession) *SessionCompleted {
	var at time.Time
	if s.completedAt != nil {
		at = *s.completedAt
	}
	return &SessionCompleted{
		BaseEvent:   sharedDomain.NewBaseEvent(p.ID(), aggregateType, RoutingKeySessionCompleted),
		PlanID:      p.ID(),
		SessionID:   s.ID(),
		CompletedAt: at,
	}
}

// PlanCompleted is emitted when the last session of a plan is done.
type PlanCompleted struct {
	sharedDomain.BaseEvent
	PlanID   int64 `json:"plan_id"`
	MemberID int64 `json:"member_id"`
	CoachID  int64 `json:"coach_id"`
}

// NewPlanCompleted creates a PlanCompleted event.
func NewPlanCompleted(p *TrainingPlan) *PlanCompleted {
	return &PlanCompleted{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), aggregateType, RoutingKeyPlanCompleted),
		PlanID:    p.ID(),
		MemberID:  p.memberID,
		CoachID:   p.coachID,
	}
}
