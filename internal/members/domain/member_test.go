package domain

import (
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newTestMember(t *testing.T, tier MembershipTier) *Member {
	t.Helper()
	name, err := sharedDomain.NewFullName("Anna", "Nowak")
	require.NoError(t, err)
	email, err := sharedDomain.NewEmail("anna@studio.com")
	require.NoError(t, err)
	phone, err := sharedDomain.NewPhone("+48100000000")
	require.NoError(t, err)
	membership, err := NewMembership(tier, today.AddDate(0, 1, 0))
	require.NoError(t, err)
	return RegisterMember(name, email, phone, FitnessBeginner, membership)
}

func newTestGoal(t *testing.T, goalType GoalType) *FitnessGoal {
	t.Helper()
	goal, err := NewFitnessGoal(goalType, "summer shape", today.AddDate(0, 3, 0), today)
	require.NoError(t, err)
	return goal
}

func TestRegisterMember(t *testing.T) {
	m := newTestMember(t, TierFree)

	assert.False(t, m.HasID())
	assert.Equal(t, "Anna Nowak", m.Name().Full())
	assert.Equal(t, "anna@studio.com", m.Email().String())
	assert.Equal(t, FitnessBeginner, m.FitnessLevel())
	assert.Equal(t, TierFree, m.Membership().Tier())
	assert.Empty(t, m.Goals())
	assert.False(t, m.HasActivePlan())
}

func TestRegisterMember_EmitsEventBoundOnPersist(t *testing.T) {
	m := newTestMember(t, TierFree)

	m.AssignID(11)

	events := m.PullDomainEvents()
	require.Len(t, events, 1)
	registered, ok := events[0].(*MemberRegistered)
	require.True(t, ok)
	assert.Equal(t, RoutingKeyMemberRegistered, registered.RoutingKey())
	assert.Equal(t, int64(11), registered.MemberID)
	assert.Equal(t, int64(11), registered.AggregateID())
	assert.Equal(t, "Anna Nowak", registered.FullName)
	assert.Equal(t, "anna@studio.com", registered.Email)
}

func TestMember_AddGoal_FreeTierLimit(t *testing.T) {
	m := newTestMember(t, TierFree)

	require.NoError(t, m.AddGoal(newTestGoal(t, GoalLoseWeight)))
	require.NoError(t, m.AddGoal(newTestGoal(t, GoalEndurance)))

	err := m.AddGoal(newTestGoal(t, GoalFlexibility))
	assert.ErrorIs(t, err, ErrGoalLimitReached)
	assert.True(t, sharedDomain.IsInvariantViolation(err))
	assert.Len(t, m.Goals(), 2)
}

func TestMember_AddGoal_AfterUpgrade(t *testing.T) {
	m := newTestMember(t, TierFree)
	require.NoError(t, m.AddGoal(newTestGoal(t, GoalLoseWeight)))
	require.NoError(t, m.AddGoal(newTestGoal(t, GoalEndurance)))

	premium, err := NewMembership(TierPremium, today.AddDate(1, 0, 0))
	require.NoError(t, err)
	m.UpgradeMembership(premium)

	require.NoError(t, m.AddGoal(newTestGoal(t, GoalFlexibility)))
	assert.Len(t, m.Goals(), 3)
}

func TestMember_UpgradeMembership_Events(t *testing.T) {
	vip, err := NewMembership(TierVIP, today.AddDate(1, 0, 0))
	require.NoError(t, err)

	t.Run("transient member records nothing", func(t *testing.T) {
		m := newTestMember(t, TierFree)
		m.PullDomainEvents()

		m.UpgradeMembership(vip)

		assert.Empty(t, m.PullDomainEvents())
		assert.Equal(t, TierVIP, m.Membership().Tier())
	})

	t.Run("persisted member records the tier change", func(t *testing.T) {
		m := newTestMember(t, TierFree)
		m.AssignID(3)
		m.PullDomainEvents()

		m.UpgradeMembership(vip)

		events := m.PullDomainEvents()
		require.Len(t, events, 1)
		upgraded := events[0].(*MembershipUpgraded)
		assert.Equal(t, int64(3), upgraded.MemberID)
		assert.Equal(t, "FREE", upgraded.OldTier)
		assert.Equal(t, "VIP", upgraded.NewTier)
	})
}

func TestMember_AchieveGoal(t *testing.T) {
	m := newTestMember(t, TierPremium)
	m.AssignID(5)
	m.PullDomainEvents()
	goal := newTestGoal(t, GoalBuildMuscle)
	require.NoError(t, m.AddGoal(goal))
	goal.AssignID(21)

	require.NoError(t, m.AchieveGoal(21))

	assert.True(t, goal.IsAchieved())
	events := m.PullDomainEvents()
	require.Len(t, events, 1)
	achieved := events[0].(*GoalAchieved)
	assert.Equal(t, int64(5), achieved.MemberID)
	assert.Equal(t, int64(21), achieved.GoalID)
	assert.Equal(t, "BUILD_MUSCLE", achieved.GoalType)
}

func TestMember_AchieveGoal_NotFound(t *testing.T) {
	m := newTestMember(t, TierPremium)

	err := m.AchieveGoal(404)

	assert.True(t, sharedDomain.IsNotFound(err))
}

func TestMember_AssignPlan(t *testing.T) {
	m := newTestMember(t, TierFree)

	require.NoError(t, m.AssignPlan(7))
	planID, ok := m.ActivePlanID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), planID)

	err := m.AssignPlan(8)
	assert.ErrorIs(t, err, ErrActivePlanAssigned)
	planID, _ = m.ActivePlanID()
	assert.Equal(t, int64(7), planID)

	m.ClearActivePlan()
	assert.False(t, m.HasActivePlan())
	assert.NoError(t, m.AssignPlan(8))
}

func TestNewFitnessGoal_TargetDateMustBeFuture(t *testing.T) {
	_, err := NewFitnessGoal(GoalEndurance, "marathon", today, today)
	assert.True(t, sharedDomain.IsInvariantViolation(err))

	_, err = NewFitnessGoal(GoalEndurance, "marathon", today.AddDate(0, 0, -1), today)
	assert.True(t, sharedDomain.IsInvariantViolation(err))

	goal, err := NewFitnessGoal(GoalEndurance, "  marathon ", today.AddDate(0, 0, 1), today)
	require.NoError(t, err)
	assert.Equal(t, "marathon", goal.Description())
	assert.False(t, goal.IsAchieved())
	assert.False(t, goal.HasID())
}

func TestMembership_IsActive(t *testing.T) {
	membership, err := NewMembership(TierPremium, today)
	require.NoError(t, err)

	assert.True(t, membership.IsActive(today))
	assert.True(t, membership.IsActive(today.Add(-time.Hour)))
	assert.False(t, membership.IsActive(today.AddDate(0, 0, 1)))
}

func TestParseEnums(t *testing.T) {
	_, err := ParseFitnessLevel("EXPERT")
	assert.True(t, sharedDomain.IsInvariantViolation(err))
	_, err = ParseMembershipTier("GOLD")
	assert.True(t, sharedDomain.IsInvariantViolation(err))
	_, err = ParseGoalType("RELAX")
	assert.True(t, sharedDomain.IsInvariantViolation(err))

	level, err := ParseFitnessLevel("ADVANCED")
	require.NoError(t, err)
	assert.Equal(t, FitnessAdvanced, level)
}
