package domain

import (
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

const aggregateType = "Member"

// Routing keys for member events.
const (
	RoutingKeyMemberRegistered   = "members.member.registered"
	RoutingKeyGoalAchieved       = "members.goal.achieved"
	RoutingKeyMembershipUpgraded = "members.membership.upgraded"
)

// MemberRegistered is emitted when a member signs up.
type MemberRegistered struct {
	sharedDomain.BaseEvent
	MemberID int64  `json:"member_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// NewMemberRegistered creates a MemberRegistered event.
func NewMemberRegistered(m *Member) *MemberRegistered {
	return &MemberRegistered{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyMemberRegistered),
		MemberID:  m.ID(),
		Email:     m.Email().String(),
		FullName:  m.Name().Full(),
	}
}

// BindAggregateID fills the member id once the member is persisted.
func (e *MemberRegistered) BindAggregateID(id int64) {
	e.BaseEvent.BindAggregateID(id)
	if e.MemberID == 0 {
		e.MemberID = id
	}
}

// GoalAchieved is emitted when a member reaches one of their goals.
type GoalAchieved struct {
	sharedDomain.BaseEvent
	MemberID int64  `json:"member_id"`
	GoalID   int64  `json:"goal_id"`
	GoalType string `json:"goal_type"`
}

// NewGoalAchieved creates a GoalAchieved event.
func NewGoalAchieved(m *Member, g *FitnessGoal) *GoalAchieved {
	return &GoalAchieved{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyGoalAchieved),
		MemberID:  m.ID(),
		GoalID:    g.ID(),
		GoalType:  string(g.Type()),
	}
}

// MembershipUpgraded is emitted when a member changes tier.
type MembershipUpgraded struct {
	sharedDomain.BaseEvent
	MemberID int64  `json:"member_id"`
	OldTier  string `json:"old_tier"`
	NewTier  string `json:"new_tier"`
}

// NewMembershipUpgraded creates a MembershipUpgraded event.
func NewMembershipUpgraded(m *Member, oldTier, newTier MembershipTier) *MembershipUpgraded {
	return &MembershipUpgraded{
		BaseEvent: sharedDomain.NewBaseEvent(m.ID(), aggregateType, RoutingKeyMembershipUpgraded),
		MemberID:  m.ID(),
		OldTier:   string(oldTier),
		NewTier:   string(newTier),
	}
}
