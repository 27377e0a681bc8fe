package application

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

// mockCoachRepo is a mock implementation of domain.Repository.
type mockCoachRepo struct {
	mock.Mock
}

func (m *mockCoachRepo) FindByID(ctx context.Context, id int64) (*domain.Coach, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coach), args.Error(1)
}

func (m *mockCoachRepo) FindByEmail(ctx context.Context, email string) (*domain.Coach, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coach), args.Error(1)
}

func (m *mockCoachRepo) FindAll(ctx context.Context) ([]*domain.Coach, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Coach), args.Error(1)
}

func (m *mockCoachRepo) FindBySpecialization(ctx context.Context, spec domain.Specialization) ([]*domain.Coach, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Coach), args.Error(1)
}

func (m *mockCoachRepo) Save(ctx context.Context, coach *domain.Coach) error {
	args := m.Called(ctx, coach)
	return args.Error(0)
}

func (m *mockCoachRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockMemberRepo is a mock implementation of the member repository.
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

// fakeCache is an in-memory Cache that can be told to fail.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	deleted []string
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
	c.deleted = append(c.deleted, keys...)
	if c.err != nil {
		return c.err
	}
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
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

type fixture struct {
	svc        *Service
	repo       *mockCoachRepo
	members    *mockMemberRepo
	cache      *fakeCache
	dispatcher *recordingDispatcher
}

func newFixture() *fixture {
	f := &fixture{
		repo:       new(mockCoachRepo),
		members:    new(mockMemberRepo),
		cache:      newFakeCache(),
		dispatcher: &recordingDispatcher{},
	}
	f.svc = NewService(f.repo, f.members, f.cache, f.dispatcher, nil)
	return f
}

func persistedCoach(t *testing.T, id int64, email string, tier domain.Tier, specs ...domain.Specialization) *domain.Coach {
	t.Helper()
	name, err := sharedDomain.NewFullName("Marek", "Kowalski")
	require.NoError(t, err)
	addr, err := sharedDomain.NewEmail(email)
	require.NoError(t, err)
	return domain.RehydrateCoach(
		sharedDomain.RehydrateBaseEntity(id, today, today),
		name, addr, "Former powerlifter", tier, specs, 10, 0, nil, nil,
	)
}

func persistedMember(t *testing.T, id int64, tier memberDomain.MembershipTier, goals ...memberDomain.GoalType) *memberDomain.Member {
	t.Helper()
	name, err := sharedDomain.NewFullName("Anna", "Nowak")
	require.NoError(t, err)
	email, err := sharedDomain.NewEmail("anna@studio.com")
	require.NoError(t, err)
	phone, err := sharedDomain.NewPhone("+48100000000")
	require.NoError(t, err)
	membership, err := memberDomain.NewMembership(tier, today.AddDate(0, 1, 0))
	require.NoError(t, err)
	list := make([]*memberDomain.FitnessGoal, 0, len(goals))
	for i, g := range goals {
		list = append(list, memberDomain.RehydrateFitnessGoal(int64(i+1), g, "", today.AddDate(0, 2, 0), false))
	}
	return memberDomain.RehydrateMember(
		sharedDomain.RehydrateBaseEntity(id, today, today),
		name, email, phone, memberDomain.FitnessBeginner, membership, list, nil,
	)
}

func registration() RegisterCoachCommand {
	return RegisterCoachCommand{
		FirstName:       "Marek",
		LastName:        "Kowalski",
		Email:           "marek@studio.com",
		Bio:             "Former powerlifter",
		Tier:            "STANDARD",
		Specializations: []string{"strength", "CROSSFIT"},
	}
}

func TestService_Register(t *testing.T) {
	t.Run("saves coach, invalidates listings and dispatches", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "marek@studio.com").Return(nil, nil)
		f.repo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Coach).AssignID(4)
		}).Return(nil)

		coach, err := f.svc.Register(context.Background(), registration())

		require.NoError(t, err)
		assert.Equal(t, int64(4), coach.ID())
		assert.Equal(t, domain.DefaultMaxClients, coach.MaxClients())
		assert.Equal(t, []domain.Specialization{domain.SpecCrossfit, domain.SpecStrength}, coach.Specializations())

		deleted := append([]string(nil), f.cache.deleted...)
		sort.Strings(deleted)
		assert.Equal(t, []string{"coaches:available:ALL", "coaches:available:CROSSFIT", "coaches:available:STRENGTH"}, deleted)

		require.Len(t, f.dispatcher.events, 1)
		registered := f.dispatcher.events[0].(*domain.CoachRegistered)
		assert.Equal(t, int64(4), registered.CoachID)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "marek@studio.com").
			Return(persistedCoach(t, 1, "marek@studio.com", domain.TierStandard), nil)

		_, err := f.svc.Register(context.Background(), registration())

		assert.True(t, sharedDomain.IsInvariantViolation(err))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.cache.deleted)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		negative := -1
		cases := map[string]func(*RegisterCoachCommand){
			"unknown specialization": func(c *RegisterCoachCommand) { c.Specializations = []string{"PILATES"} },
			"unknown tier":           func(c *RegisterCoachCommand) { c.Tier = "GOLD" },
			"negative capacity":      func(c *RegisterCoachCommand) { c.MaxClients = &negative },
			"bad email":              func(c *RegisterCoachCommand) { c.Email = "marek" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				f := newFixture()
				f.repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
				cmd := registration()
				mutate(&cmd)

				_, err := f.svc.Register(context.Background(), cmd)

				assert.True(t, sharedDomain.IsInvariantViolation(err))
				f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			})
		}
	})
}

func TestService_FindAvailable(t *testing.T) {
	t.Run("miss populates cache and hit skips repository", func(t *testing.T) {
		f := newFixture()
		coaches := []*domain.Coach{
			persistedCoach(t, 1, "a@studio.com", domain.TierStandard, domain.SpecYoga),
			persistedCoach(t, 2, "b@studio.com", domain.TierVIP, domain.SpecCardio),
		}
		f.repo.On("FindAll", mock.Anything).Return(coaches, nil).Once()

		first, err := f.svc.FindAvailable(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, f.cache.has("coaches:available:ALL"))
		assert.Equal(t, AvailableCacheTTL, f.cache.ttls["coaches:available:ALL"])

		second, err := f.svc.FindAvailable(context.Background(), nil)
		require.NoError(t, err)

		f.repo.AssertNumberOfCalls(t, "FindAll", 1)
		require.Len(t, second, 2)
		for i := range first {
			assert.Equal(t, first[i].ID(), second[i].ID())
			assert.Equal(t, first[i].Email(), second[i].Email())
			assert.Equal(t, first[i].Tier(), second[i].Tier())
			assert.Equal(t, first[i].Specializations(), second[i].Specializations())
		}
	})

	t.Run("filters by specialization under its own key", func(t *testing.T) {
		f := newFixture()
		yoga := domain.SpecYoga
		f.repo.On("FindBySpecialization", mock.Anything, domain.SpecYoga).
			Return([]*domain.Coach{persistedCoach(t, 1, "a@studio.com", domain.TierStandard, domain.SpecYoga)}, nil).Once()

		got, err := f.svc.FindAvailable(context.Background(), &yoga)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, f.cache.has("coaches:available:YOGA"))
		assert.False(t, f.cache.has("coaches:available:ALL"))

		_, err = f.svc.FindAvailable(context.Background(), &yoga)
		require.NoError(t, err)
		f.repo.AssertNumberOfCalls(t, "FindBySpecialization", 1)
		f.repo.AssertNotCalled(t, "FindAll", mock.Anything)
	})

	t.Run("cached entries are snapshots", func(t *testing.T) {
		f := newFixture()
		live := persistedCoach(t, 1, "a@studio.com", domain.TierStandard, domain.SpecYoga)
		f.repo.On("FindAll", mock.Anything).Return([]*domain.Coach{live}, nil).Once()

		_, err := f.svc.FindAvailable(context.Background(), nil)
		require.NoError(t, err)
		require.NoError(t, live.AcceptClient(memberDomain.TierFree))

		cached, err := f.svc.FindAvailable(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, cached[0].CurrentClientCount())
		assert.NotSame(t, live, cached[0])
	})

	t.Run("cache failures degrade to repository reads", func(t *testing.T) {
		var buf bytes.Buffer
		f := newFixture()
		f.svc.logger = slog.New(slog.NewTextHandler(&buf, nil))
		f.cache.err = errors.New("connection refused")
		f.repo.On("FindAll", mock.Anything).Return([]*domain.Coach{}, nil)

		for i := 0; i < 2; i++ {
			got, err := f.svc.FindAvailable(context.Background(), nil)
			require.NoError(t, err)
			assert.Empty(t, got)
		}
		f.repo.AssertNumberOfCalls(t, "FindAll", 2)
		assert.Contains(t, buf.String(), "cache read failed")
	})

	t.Run("unreadable entry is recomputed", func(t *testing.T) {
		f := newFixture()
		f.cache.entries["coaches:available:ALL"] = `{"not":"a list"}`
		f.repo.On("FindAll", mock.Anything).Return([]*domain.Coach{}, nil).Once()

		_, err := f.svc.FindAvailable(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "[]", f.cache.entries["coaches:available:ALL"])
	})

	t.Run("repository error is returned", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindAll", mock.Anything).Return(nil, errors.New("db down"))

		_, err := f.svc.FindAvailable(context.Background(), nil)

		assert.EqualError(t, err, "db down")
		assert.False(t, f.cache.has("coaches:available:ALL"))
	})
}

func TestService_RegisterRefreshesCachedListing(t *testing.T) {
	f := newFixture()
	f.repo.On("FindAll", mock.Anything).Return([]*domain.Coach{}, nil)
	f.repo.On("FindByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.FindAvailable(context.Background(), nil)
	require.NoError(t, err)
	_, err = f.svc.Register(context.Background(), registration())
	require.NoError(t, err)
	_, err = f.svc.FindAvailable(context.Background(), nil)
	require.NoError(t, err)

	f.repo.AssertNumberOfCalls(t, "FindAll", 2)
}

func TestService_FindBestForMember(t *testing.T) {
	t.Run("matches on goal specializations", func(t *testing.T) {
		f := newFixture()
		member := persistedMember(t, 3, memberDomain.TierPremium, memberDomain.GoalFlexibility)
		f.members.On("FindByID", mock.Anything, int64(3)).Return(member, nil)
		f.repo.On("FindAll", mock.Anything).Return([]*domain.Coach{
			persistedCoach(t, 1, "a@studio.com", domain.TierStandard, domain.SpecStrength),
			persistedCoach(t, 2, "b@studio.com", domain.TierStandard, domain.SpecYoga),
		}, nil)

		best, err := f.svc.FindBestForMember(context.Background(), 3)

		require.NoError(t, err)
		require.NotNil(t, best)
		assert.Equal(t, int64(2), best.ID())
	})

	t.Run("no match returns nil", func(t *testing.T) {
		f := newFixture()
		f.members.On("FindByID", mock.Anything, int64(3)).Return(persistedMember(t, 3, memberDomain.TierFree), nil)
		f.repo.On("FindAll", mock.Anything).Return([]*domain.Coach{
			persistedCoach(t, 1, "a@studio.com", domain.TierStandard, domain.SpecStrength),
		}, nil)

		best, err := f.svc.FindBestForMember(context.Background(), 3)

		require.NoError(t, err)
		assert.Nil(t, best)
	})

	t.Run("missing member is not found", func(t *testing.T) {
		f := newFixture()
		f.members.On("FindByID", mock.Anything, int64(9)).Return(nil, sharedDomain.NotFoundf("member 9 not found"))

		_, err := f.svc.FindBestForMember(context.Background(), 9)

		assert.True(t, sharedDomain.IsNotFound(err))
		f.repo.AssertNotCalled(t, "FindAll", mock.Anything)
	})
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	coach := persistedCoach(t, 5, "a@studio.com", domain.TierStandard, domain.SpecYoga, domain.SpecCardio)
	f.repo.On("FindByID", mock.Anything, int64(5)).Return(coach, nil)
	f.repo.On("Delete", mock.Anything, int64(5)).Return(nil)
	f.repo.On("FindByID", mock.Anything, int64(6)).Return(nil, sharedDomain.NotFoundf("coach 6 not found"))
	f.cache.entries["coaches:available:YOGA"] = "[]"
	f.cache.entries["coaches:available:ALL"] = "[]"
	f.cache.entries["coaches:available:STRENGTH"] = "[]"

	require.NoError(t, f.svc.Delete(context.Background(), 5))

	assert.False(t, f.cache.has("coaches:available:YOGA"))
	assert.False(t, f.cache.has("coaches:available:ALL"))
	assert.True(t, f.cache.has("coaches:available:STRENGTH"))
	assert.ElementsMatch(t, []string{"coaches:available:CARDIO", "coaches:available:YOGA", "coaches:available:ALL"}, f.cache.deleted)

	assert.True(t, sharedDomain.IsNotFound(f.svc.Delete(context.Background(), 6)))
	f.repo.AssertNumberOfCalls(t, "Delete", 1)
}

func TestListingCacheKeys(t *testing.T) {
	coach := persistedCoach(t, 5, "a@studio.com", domain.TierVIP, domain.SpecYoga, domain.SpecNutrition)

	assert.Equal(t, []string{
		"coaches:available:YOGA",
		"coaches:available:NUTRITION",
		"coaches:available:ALL",
	}, ListingCacheKeys(coach))
}

func TestService_AddCertificationAndSlot(t *testing.T) {
	f := newFixture()
	coach := persistedCoach(t, 5, "a@studio.com", domain.TierStandard, domain.SpecYoga)
	f.repo.On("FindByID", mock.Anything, int64(5)).Return(coach, nil)
	f.repo.On("Save", mock.Anything, coach).Return(nil)

	expires := today.AddDate(2, 0, 0)
	got, err := f.svc.AddCertification(context.Background(), 5, AddCertificationCommand{
		Name:        "RYT-200",
		IssuingBody: "Yoga Alliance",
		IssuedAt:    today,
		ExpiresAt:   &expires,
	})
	require.NoError(t, err)
	require.Len(t, got.Certifications(), 1)
	assert.True(t, got.Certifications()[0].IsValid(today))

	got, err = f.svc.AddAvailabilitySlot(context.Background(), 5, AddAvailabilityCommand{Day: "TUE", StartHour: 7, EndHour: 11})
	require.NoError(t, err)
	require.Len(t, got.AvailabilitySlots(), 1)
	assert.Equal(t, domain.Tuesday, got.AvailabilitySlots()[0].Day())
	assert.Contains(t, f.cache.deleted, "coaches:available:YOGA")

	_, err = f.svc.AddAvailabilitySlot(context.Background(), 5, AddAvailabilityCommand{Day: "TUE", StartHour: 11, EndHour: 7})
	assert.True(t, sharedDomain.IsInvariantViolation(err))
	_, err = f.svc.AddCertification(context.Background(), 5, AddCertificationCommand{Name: " ", IssuedAt: today})
	assert.True(t, sharedDomain.IsInvariantViolation(err))
	f.repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestCoachRegisteredHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	handler := NewCoachRegisteredHandler(slog.New(slog.NewTextHandler(&buf, nil)))
	coach := persistedCoach(t, 8, "a@studio.com", domain.TierVIP)

	require.NoError(t, handler.Handle(context.Background(), domain.NewCoachRegistered(coach)))
	assert.Contains(t, buf.String(), "coach_id=8")

	assert.Error(t, handler.Handle(context.Background(), nil))
}
