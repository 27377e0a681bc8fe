package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/studio/internal/members/domain"
	"github.com/felixgeelhaar/studio/internal/members/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/dbtest"
)

func newMember(t *testing.T, email string, tier domain.MembershipTier) *domain.Member {
	t.Helper()
	name, err := sharedDomain.NewFullName("Anna", "Nowak")
	require.NoError(t, err)
	addr, err := sharedDomain.NewEmail(email)
	require.NoError(t, err)
	phone, err := sharedDomain.NewPhone("+48100000000")
	require.NoError(t, err)
	membership, err := domain.NewMembership(tier, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	return domain.RegisterMember(name, addr, phone, domain.FitnessIntermediate, membership)
}

func newGoal(t *testing.T, goalType domain.GoalType) *domain.FitnessGoal {
	t.Helper()
	goal, err := domain.NewFitnessGoal(goalType, "by summer", time.Now().AddDate(0, 2, 0), time.Now())
	require.NoError(t, err)
	return goal
}

func TestMemberRepository_SaveAndFind(t *testing.T) {
	dbtest.Each(t, func(t *testing.T, conn database.Connection) {
		ctx := context.Background()
		repo := persistence.NewMemberRepository(conn)

		member := newMember(t, "anna@studio.com", domain.TierPremium)
		require.NoError(t, member.AddGoal(newGoal(t, domain.GoalEndurance)))
		require.NoError(t, member.AddGoal(newGoal(t, domain.GoalFlexibility)))

		require.NoError(t, repo.Save(ctx, member))
		require.True(t, member.HasID())
		for _, g := range member.Goals() {
			assert.True(t, g.HasID())
		}

		// The registration event learns the new id.
		events := member.PullDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, member.ID(), events[0].AggregateID())

		found, err := repo.FindByID(ctx, member.ID())
		require.NoError(t, err)
		assert.Equal(t, "Anna Nowak", found.Name().Full())
		assert.Equal(t, "anna@studio.com", found.Email().String())
		assert.Equal(t, domain.FitnessIntermediate, found.FitnessLevel())
		assert.Equal(t, domain.TierPremium, found.Membership().Tier())
		assert.Equal(t,
			sharedDomain.FormatDate(member.Membership().ValidUntil()),
			sharedDomain.FormatDate(found.Membership().ValidUntil()))
		require.Len(t, found.Goals(), 2)
		assert.Equal(t, domain.GoalEndurance, found.Goals()[0].Type())
		assert.Equal(t, member.Goals()[0].ID(), found.Goals()[0].ID())
		assert.Empty(t, found.PullDomainEvents(), "rehydration records nothing")

		byEmail, err := repo.FindByEmail(ctx, "anna@studio.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, member.ID(), byEmail.ID())

		missing, err := repo.FindByEmail(ctx, "nobody@studio.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestMemberRepository_UpsertKeepsGoalIDs(t *testing.T) {
	dbtest.Each(t, func(t *testing.T, conn database.Connection) {
		ctx := context.Background()
		repo := persistence.NewMemberRepository(conn)

		member := newMember(t, "ben@studio.com", domain.TierPremium)
		require.NoError(t, member.AddGoal(newGoal(t, domain.GoalBuildMuscle)))
		require.NoError(t, repo.Save(ctx, member))
		goalID := member.Goals()[0].ID()

		loaded, err := repo.FindByID(ctx, member.ID())
		require.NoError(t, err)
		require.NoError(t, loaded.AchieveGoal(goalID))
		require.NoError(t, loaded.AddGoal(newGoal(t, domain.GoalLoseWeight)))
		require.NoError(t, loaded.AssignPlan(99))
		require.NoError(t, repo.Save(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, member.ID())
		require.NoError(t, err)
		require.Len(t, reloaded.Goals(), 2)
		assert.Equal(t, goalID, reloaded.Goals()[0].ID())
		assert.True(t, reloaded.Goals()[0].IsAchieved())
		assert.False(t, reloaded.Goals()[1].IsAchieved())
		planID, ok := reloaded.ActivePlanID()
		assert.True(t, ok)
		assert.Equal(t, int64(99), planID)

		reloaded.ClearActivePlan()
		require.NoError(t, repo.Save(ctx, reloaded))
		cleared, err := repo.FindByID(ctx, member.ID())
		require.NoError(t, err)
		assert.False(t, cleared.HasActivePlan())
	})
}

func TestMemberRepository_DuplicateEmail(t *testing.T) {
	dbtest.Each(t, func(t *testing.T, conn database.Connection) {
		ctx := context.Background()
		repo := persistence.NewMemberRepository(conn)

		require.NoError(t, repo.Save(ctx, newMember(t, "dup@studio.com", domain.TierFree)))
		err := repo.Save(ctx, newMember(t, "dup@studio.com", domain.TierFree))

		assert.True(t, sharedDomain.IsInvariantViolation(err))
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestMemberRepository_FindAllAndDelete(t *testing.T) {
	dbtest.Each(t, func(t *testing.T, conn database.Connection) {
		ctx := context.Background()
		repo := persistence.NewMemberRepository(conn)

		first := newMember(t, "one@studio.com", domain.TierFree)
		second := newMember(t, "two@studio.com", domain.TierVIP)
		require.NoError(t, first.AddGoal(newGoal(t, domain.GoalEndurance)))
		require.NoError(t, repo.Save(ctx, first))
		require.NoError(t, repo.Save(ctx, second))

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID(), all[0].ID())
		assert.Len(t, all[0].Goals(), 1)

		require.NoError(t, repo.Delete(ctx, first.ID()))
		_, err = repo.FindByID(ctx, first.ID())
		assert.True(t, sharedDomain.IsNotFound(err))

		err = repo.Delete(ctx, first.ID())
		assert.True(t, sharedDomain.IsNotFound(err))
	})
}

func TestMemberRepository_SaveRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.SQLite(t)
	ctx := context.Background()
	repo := persistence.NewMemberRepository(conn)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	txCtx := database.WithTx(ctx, tx, true)
	member := newMember(t, "gone@studio.com", domain.TierFree)
	require.NoError(t, repo.Save(txCtx, member))

	visible, err := repo.FindByID(txCtx, member.ID())
	require.NoError(t, err)
	assert.Equal(t, member.ID(), visible.ID())
	require.NoError(t, tx.Rollback(ctx))

	_, err = repo.FindByID(ctx, member.ID())
	assert.True(t, sharedDomain.IsNotFound(err))
}
