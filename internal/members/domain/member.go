package domain

import (
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

const (
	// FreeTierMaxGoals is the goal limit for FREE members.
	FreeTierMaxGoals = 2
	// DefaultMembershipDays is applied when registration gives no end date.
	DefaultMembershipDays = 30
)

var (
	ErrGoalLimitReached   = sharedDomain.Invariantf("FREE members may only have %d goals; upgrade your membership to add more", FreeTierMaxGoals)
	ErrActivePlanAssigned = sharedDomain.Invariantf("member already has an active plan; complete or cancel it first")
)

// FitnessLevel describes a member's training experience.
type FitnessLevel string

const (
	FitnessBeginner     FitnessLevel = "BEGINNER"
	FitnessIntermediate FitnessLevel = "INTERMEDIATE"
	FitnessAdvanced     FitnessLevel = "ADVANCED"
)

// IsValid checks if the fitness level is known.
func (l FitnessLevel) IsValid() bool {
	switch l {
	case FitnessBeginner, FitnessIntermediate, FitnessAdvanced:
		return true
	default:
		return false
	}
}

// ParseFitnessLevel converts a string into a FitnessLevel.
func ParseFitnessLevel(value string) (FitnessLevel, error) {
	level := FitnessLevel(value)
	if !level.IsValid() {
		return "", sharedDomain.Invariantf("invalid fitness level: %q", value)
	}
	return level, nil
}

// Member is a studio client.
type Member struct {
	sharedDomain.BaseAggregateRoot
	name         sharedDomain.FullName
	email        sharedDomain.Email
	phone        sharedDomain.Phone
	fitnessLevel FitnessLevel
	membership   Membership
	goals        []*FitnessGoal
	activePlanID *int64
}

// RegisterMember creates a new member and records MemberRegistered.
func RegisterMember(
	name sharedDomain.FullName,
	email sharedDomain.Email,
	phone sharedDomain.Phone,
	level FitnessLevel,
	membership Membership,
) *Member {
	m := &Member{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		name:              name,
		email:             email,
		phone:             phone,
		fitnessLevel:      level,
		membership:        membership,
		goals:             make([]*FitnessGoal, 0),
	}
	m.AddDomainEvent(NewMemberRegistered(m))
	return m
}

// RehydrateMember recreates a member from persisted state without recording events.
func RehydrateMember(
	entity sharedDomain.BaseEntity,
	name sharedDomain.FullName,
	email sharedDomain.Email,
	phone sharedDomain.Phone,
	level FitnessLevel,
	membership Membership,
	goals []*FitnessGoal,
	activePlanID *int64,
) *Member {
	if goals == nil {
		goals = make([]*FitnessGoal, 0)
	}
	return &Member{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity),
		name:              name,
		email:             email,
		phone:             phone,
		fitnessLevel:      level,
		membership:        membership,
		goals:             goals,
		activePlanID:      activePlanID,
	}
}

// Getters
func (m *Member) Name() sharedDomain.FullName { return m.name }
func (m *Member) Email() sharedDomain.Email   { return m.email }
func (m *Member) Phone() sharedDomain.Phone   { return m.phone }
func (m *Member) FitnessLevel() FitnessLevel  { return m.fitnessLevel }
func (m *Member) Membership() Membership      { return m.membership }
func (m *Member) Goals() []*FitnessGoal       { return m.goals }

// ActivePlanID returns the active plan reference, if any.
func (m *Member) ActivePlanID() (int64, bool) {
	if m.activePlanID == nil {
		return 0, false
	}
	return *m.activePlanID, true
}

// HasActivePlan reports whether a plan is currently assigned.
func (m *Member) HasActivePlan() bool { return m.activePlanID != nil }

// AddGoal appends a goal, enforcing the FREE-tier limit.
func (m *Member) AddGoal(goal *FitnessGoal) error {
	if m.membership.Tier() == TierFree && len(m.goals) >= FreeTierMaxGoals {
		return ErrGoalLimitReached
	}
	m.goals = append(m.goals, goal)
	m.Touch()
	return nil
}

// AchieveGoal marks the goal with the given id as achieved.
func (m *Member) AchieveGoal(goalID int64) error {
	goal := m.findGoal(goalID)
	if goal == nil {
		return sharedDomain.NotFoundf("goal %d not found", goalID)
	}
	goal.markAchieved()
	m.Touch()
	if m.HasID() {
		m.AddDomainEvent(NewGoalAchieved(m, goal))
	}
	return nil
}

// UpgradeMembership replaces the membership.
func (m *Member) UpgradeMembership(membership Membership) {
	old := m.membership.Tier()
	m.membership = membership
	m.Touch()
	if m.HasID() {
		m.AddDomainEvent(NewMembershipUpgraded(m, old, membership.Tier()))
	}
}

// AssignPlan sets the active plan. A member holds at most one.
func (m *Member) AssignPlan(planID int64) error {
	if m.activePlanID != nil {
		return ErrActivePlanAssigned
	}
	m.activePlanID = &planID
	m.Touch()
	return nil
}

// ClearActivePlan removes the active plan reference.
func (m *Member) ClearActivePlan() {
	m.activePlanID = nil
	m.Touch()
}

func (m *Member) findGoal(goalID int64) *FitnessGoal {
	for _, g := range m.goals {
		if g.HasID() && g.ID() == goalID {
			return g
		}
	}
	return nil
}
