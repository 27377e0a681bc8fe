package application

import (
	"context"
	"sync"
	"testing"
	"time"

	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	"github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

type mockPlanRepo struct {
	mock.Mock
}

func (m *mockPlanRepo) FindByID(ctx context.Context, id int64) (*domain.TrainingPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingPlan), args.Error(1)
}

func (m *mockPlanRepo) FindAll(ctx context.Context) ([]*domain.TrainingPlan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.TrainingPlan), args.Error(1)
}

func (m *mockPlanRepo) FindByMember(ctx context.Context, memberID int64) ([]*domain.TrainingPlan, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]*domain.TrainingPlan), args.Error(1)
}

func (m *mockPlanRepo) Save(ctx context.Context, plan *domain.TrainingPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *mockPlanRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockMemberRepo struct {
	mock.Mock
}

func (m *mockMemberRepo) FindByID(ctx context.Context, id int64) (*memberDomain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memberDomain.Member), args.Error(1)
}

func (m *mockMemberRepo) FindByEmail(ctx context.Context, email string) (*memberDomain.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memberDomain.Member), args.Error(1)
}

func (m *mockMemberRepo) FindAll(ctx context.Context) ([]*memberDomain.Member, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*memberDomain.Member), args.Error(1)
}

func (m *mockMemberRepo) Save(ctx context.Context, member *memberDomain.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockMemberRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockCoachRepo struct {
	mock.Mock
}

func (m *mockCoachRepo) FindByID(ctx context.Context, id int64) (*coachDomain.Coach, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coachDomain.Coach), args.Error(1)
}

func (m *mockCoachRepo) FindByEmail(ctx context.Context, email string) (*coachDomain.Coach, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coachDomain.Coach), args.Error(1)
}

func (m *mockCoachRepo) FindAll(ctx context.Context) ([]*coachDomain.Coach, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*coachDomain.Coach), args.Error(1)
}

func (m *mockCoachRepo) FindBySpecialization(ctx context.Context, spec coachDomain.Specialization) ([]*coachDomain.Coach, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).([]*coachDomain.Coach), args.Error(1)
}

func (m *mockCoachRepo) Save(ctx context.Context, coach *coachDomain.Coach) error {
	return m.Called(ctx, coach).Error(0)
}

func (m *mockCoachRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockOutboxWriter struct {
	mock.Mock
}

func (m *mockOutboxWriter) Append(ctx context.Context, msgs ...*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) BeginNew(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakeCache is an in-memory Cache that can be told to fail.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return c.err
}

// fakeLookup serves canned search results and counts queries.
type fakeLookup struct {
	mu       sync.Mutex
	results  map[string][]ExerciseInfo
	searches []string
}

func (l *fakeLookup) SearchExercises(_ context.Context, name string) []ExerciseInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.searches = append(l.searches, name)
	return l.results[name]
}

func (l *fakeLookup) GetExercise(_ context.Context, id string) (*ExerciseInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, list := range l.results {
		for _, info := range list {
			if info.ExerciseID == id {
				return &info, true
			}
		}
	}
	return nil, false
}

// recordingDispatcher captures background dispatches.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []sharedDomain.DomainEvent
}

func (d *recordingDispatcher) Run(ctx context.Context, event sharedDomain.DomainEvent) error {
	d.RunInBackground(ctx, event)
	return nil
}

func (d *recordingDispatcher) RunInBackground(_ context.Context, event sharedDomain.DomainEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) routingKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, len(d.events))
	for i, e := range d.events {
		keys[i] = e.RoutingKey()
	}
	return keys
}

func persistedMember(t *testing.T, id int64, activePlanID *int64) *memberDomain.Member {
	t.Helper()
	return memberOnTier(t, id, activePlanID, memberDomain.TierPremium)
}

func memberOnTier(t *testing.T, id int64, activePlanID *int64, tier memberDomain.MembershipTier) *memberDomain.Member {
	t.Helper()
	name, err := sharedDomain.NewFullName("Anna", "Nowak")
	require.NoError(t, err)
	email, err := sharedDomain.NewEmail("anna@studio.com")
	require.NoError(t, err)
	phone, err := sharedDomain.NewPhone("+48100000000")
	require.NoError(t, err)
	membership, err := memberDomain.NewMembership(tier, today.AddDate(0, 1, 0))
	require.NoError(t, err)
	return memberDomain.RehydrateMember(
		sharedDomain.RehydrateBaseEntity(id, today, today),
		name, email, phone, memberDomain.FitnessIntermediate, membership, nil, activePlanID,
	)
}

func persistedCoach(t *testing.T, id int64) *coachDomain.Coach {
	t.Helper()
	return coachWithClients(t, id, coachDomain.TierStandard, 10, 0)
}

func coachWithClients(t *testing.T, id int64, tier coachDomain.Tier, maxClients, current int) *coachDomain.Coach {
	t.Helper()
	name, err := sharedDomain.NewFullName("Marek", "Kowalski")
	require.NoError(t, err)
	email, err := sharedDomain.NewEmail("marek@studio.com")
	require.NoError(t, err)
	return coachDomain.RehydrateCoach(
		sharedDomain.RehydrateBaseEntity(id, today, today),
		name, email, "", tier, []coachDomain.Specialization{coachDomain.SpecStrength}, maxClients, current, nil, nil,
	)
}

// persistedPlan builds a stored plan with pending sessions numbered from 100.
func persistedPlan(id, memberID int64, status domain.PlanStatus, sessions int) *domain.TrainingPlan {
	list := make([]*domain.WorkoutSession, 0, sessions)
	for i := 0; i < sessions; i++ {
		list = append(list, domain.RehydrateWorkoutSession(
			int64(100+i), "Day", today.AddDate(0, 0, i), nil, domain.SessionStatusPending, nil, "",
		))
	}
	return domain.RehydratePlan(
		sharedDomain.RehydrateBaseEntity(id, today, today),
		memberID, 2, "Strength block", status, today, today.AddDate(0, 1, 0), list,
	)
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }
