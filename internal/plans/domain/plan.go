package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// PlanStatus is the lifecycle state of a training plan.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "DRAFT"
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusCancelled PlanStatus = "CANCELLED"
)

// IsValid checks if the status is known.
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusActive, PlanStatusCompleted, PlanStatusCancelled:
		return true
	default:
		return false
	}
}

// ParsePlanStatus converts a string into a PlanStatus.
func ParsePlanStatus(value string) (PlanStatus, error) {
	status := PlanStatus(value)
	if !status.IsValid() {
		return "", sharedDomain.Invariantf("invalid plan status: %q", value)
	}
	return status, nil
}

func invalidState(action string, status PlanStatus) error {
	return sharedDomain.Invariantf("cannot %s a plan in status %s", action, status)
}

// TrainingPlan is a member's coached schedule of workout sessions.
type TrainingPlan struct {
	sharedDomain.BaseAggregateRoot
	memberID  int64
	coachID   int64
	name      string
	status    PlanStatus
	startDate time.Time
	endDate   time.Time
	sessions  []*WorkoutSession
}

// CreatePlan creates a DRAFT plan and records PlanCreated.
func CreatePlan(memberID, coachID int64, name string, startDate, endDate time.Time) (*TrainingPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, sharedDomain.Invariantf("plan name cannot be blank")
	}
	start := sharedDomain.DateOf(startDate)
	end := sharedDomain.DateOf(endDate)
	if end.Before(start) {
		return nil, sharedDomain.Invariantf("plan end date cannot be before its start date")
	}

	p := &TrainingPlan{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		memberID:          memberID,
		coachID:           coachID,
		name:              name,
		status:            PlanStatusDraft,
		startDate:         start,
		endDate:           end,
		sessions:          make([]*WorkoutSession, 0),
	}
	p.AddDomainEvent(NewPlanCreated(p))
	return p, nil
}

// RehydratePlan recreates a plan from persisted state without recording events.
func RehydratePlan(
	entity sharedDomain.BaseEntity,
	memberID, coachID int64,
	name string,
	status PlanStatus,
	startDate, endDate time.Time,
	sessions []*WorkoutSession,
) *TrainingPlan {
	if sessions == nil {
		sessions = make([]*WorkoutSession, 0)
	}
	return &TrainingPlan{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity),
		memberID:          memberID,
		coachID:           coachID,
		name:              name,
		status:            status,
		startDate:         startDate,
		endDate:           endDate,
		sessions:          sessions,
	}
}

// Getters
func (p *TrainingPlan) MemberID() int64             { return p.memberID }
func (p *TrainingPlan) CoachID() int64              { return p.coachID }
func (p *TrainingPlan) Name() string                { return p.name }
func (p *TrainingPlan) Status() PlanStatus          { return p.status }
func (p *TrainingPlan) StartDate() time.Time        { return p.startDate }
func (p *TrainingPlan) EndDate() time.Time          { return p.endDate }
func (p *TrainingPlan) Sessions() []*WorkoutSession { return p.sessions }

// AddSession appends a session. Only draft plans can be edited.
func (p *TrainingPlan) AddSession(session *WorkoutSession) error {
	if p.status != PlanStatusDraft {
		return invalidState("add a session to", p.status)
	}
	p.sessions = append(p.sessions, session)
	p.Touch()
	return nil
}

// Activate moves a draft plan to ACTIVE.
func (p *TrainingPlan) Activate() error {
	if p.status != PlanStatusDraft {
		return invalidState("activate", p.status)
	}
	p.status = PlanStatusActive
	p.Touch()
	if p.HasID() {
		p.AddDomainEvent(NewPlanActivated(p))
	}
	return nil
}

// CompleteSession marks a session done. Nil notes keep the current notes.
// The plan completes itself once no session is left pending.
func (p *TrainingPlan) CompleteSession(sessionID int64, notes *string, now time.Time) error {
	if p.status != PlanStatusActive {
		return invalidState("complete a session of", p.status)
	}
	session := p.findSession(sessionID)
	if session == nil {
		return sharedDomain.NotFoundf("session %d not found in plan %d", sessionID, p.ID())
	}
	if err := session.Complete(notes, now); err != nil {
		return err
	}
	p.Touch()
	if p.HasID() {
		p.AddDomainEvent(NewSessionCompleted(p, session))
	}
	p.completeIfFinished()
	return nil
}

// SkipSession marks a pending session skipped. Skipping records no
// SessionCompleted event; the plan still completes, and raises PlanCompleted,
// when the skipped session was the last one pending.
func (p *TrainingPlan) SkipSession(sessionID int64) error {
	if p.status != PlanStatusActive {
		return invalidState("skip a session of", p.status)
	}
	session := p.findSession(sessionID)
	if session == nil {
		return sharedDomain.NotFoundf("session %d not found in plan %d", sessionID, p.ID())
	}
	if err := session.Skip(); err != nil {
		return err
	}
	p.Touch()
	p.completeIfFinished()
	return nil
}

// Cancel abandons a draft or active plan.
func (p *TrainingPlan) Cancel() error {
	if p.status != PlanStatusDraft && p.status != PlanStatusActive {
		return invalidState("cancel", p.status)
	}
	p.status = PlanStatusCancelled
	p.Touch()
	return nil
}

// IsFinished reports whether the plan can no longer change.
func (p *TrainingPlan) IsFinished() bool {
	return p.status == PlanStatusCompleted || p.status == PlanStatusCancelled
}

func (p *TrainingPlan) completeIfFinished() {
	if len(p.sessions) == 0 {
		return
	}
	for _, s := range p.sessions {
		if s.Status() == SessionStatusPending {
			return
		}
	}
	p.status = PlanStatusCompleted
	if p.HasID() {
		p.AddDomainEvent(NewPlanCompleted(p))
	}
}

func (p *TrainingPlan) findSession(sessionID int64) *WorkoutSession {
	for _, s := range p.sessions {
		if s.HasID() && s.ID() == sessionID {
			return s
		}
	}
	return nil
}
