package domain

import (
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

const aggregateType = "Coach"

// RoutingKeyCoachRegistered is the routing key of CoachRegistered.
const RoutingKeyCoachRegistered = "coaches.coach.registered"

// CoachRegistered is emitted when a coach joins the studio.
type CoachRegistered struct {
	sharedDomain.BaseEvent
	CoachID  int64  `json:"coach_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// NewCoachRegistered creates a CoachRegistered event.
func NewCoachRegistered(c *Coach) *CoachRegistered {
	return &CoachRegistered{
		BaseEvent: sharedDomain.NewBaseEvent(c.ID(), aggregateType, RoutingKeyCoachRegistered),
		CoachID:   c.ID(),
		Email:     c.Email().String(),
		FullName:  c.Name().Full(),
	}
}

// BindAggregateID fills the coach id once the coach is persisted.
func (e *CoachRegistered) BindAggregateID(id int64) {
	e.BaseEvent.BindAggregateID(id)
	if e.CoachID == 0 {
		e.CoachID = id
	}
}
