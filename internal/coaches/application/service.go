package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

const (
	// AvailableCacheTTL bounds how long an availability listing is served from cache.
	AvailableCacheTTL = 300 * time.Second

	availableKeyPrefix = "coaches:available:"
	availableKeyAll    = availableKeyPrefix + "ALL"
)

// AvailableCacheKey returns the cache key of an availability listing.
// A nil specialization names the unfiltered listing.
func AvailableCacheKey(spec *domain.Specialization) string {
	if spec == nil {
		return availableKeyAll
	}
	return availableKeyPrefix + string(*spec)
}

// RegisterCoachCommand contains the data needed to register a coach.
type RegisterCoachCommand struct {
	FirstName       string
	LastName        string
	Email           string
	Bio             string
	Tier            string
	Specializations []string
	// MaxClients defaults to domain.DefaultMaxClients.
	MaxClients *int
}

// AddCertificationCommand describes a certification to record.
type AddCertificationCommand struct {
	Name        string
	IssuingBody string
	IssuedAt    time.Time
	ExpiresAt   *time.Time
}

// AddAvailabilityCommand describes a weekly availability window.
type AddAvailabilityCommand struct {
	Day       string
	StartHour int
	EndHour   int
}

// Service coordinates coach use cases and owns the coaches:available:* cache keys.
type Service struct {
	repo       domain.Repository
	members    memberDomain.Repository
	cache      sharedApplication.Cache
	dispatcher sharedApplication.EventDispatcher
	matcher    *domain.MatchingService
	logger     *slog.Logger
}

// NewService creates a new coach service.
func NewService(
	repo domain.Repository,
	members memberDomain.Repository,
	cache sharedApplication.Cache,
	dispatcher sharedApplication.EventDispatcher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		members:    members,
		cache:      cache,
		dispatcher: dispatcher,
		matcher:    domain.NewMatchingService(),
		logger:     logger,
	}
}

// Register creates a coach with a unique email address.
func (s *Service) Register(ctx context.Context, cmd RegisterCoachCommand) (*domain.Coach, error) {
	name, err := sharedDomain.NewFullName(cmd.FirstName, cmd.LastName)
	if err != nil {
		return nil, err
	}
	email, err := sharedDomain.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	tierValue := cmd.Tier
	if tierValue == "" {
		tierValue = string(domain.TierStandard)
	}
	tier, err := domain.ParseTier(tierValue)
	if err != nil {
		return nil, err
	}
	specs := make([]domain.Specialization, 0, len(cmd.Specializations))
	for _, raw := range cmd.Specializations {
		spec, err := domain.ParseSpecialization(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	maxClients := domain.DefaultMaxClients
	if cmd.MaxClients != nil {
		maxClients = *cmd.MaxClients
	}

	existing, err := s.repo.FindByEmail(ctx, email.String())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, sharedDomain.Invariantf("email %s is already registered", email)
	}

	coach, err := domain.RegisterCoach(name, email, cmd.Bio, tier, specs, maxClients)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, coach); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "coach registered",
		"coach_id", coach.ID(),
		"email", email.String(),
	)

	s.invalidate(ctx, coach)
	sharedApplication.DispatchAll(ctx, s.dispatcher, coach.PullDomainEvents())
	return coach, nil
}

// FindAvailable lists coaches, optionally filtered by specialization, through
// the cache. Cached coaches are snapshots: later changes stay invisible until
// the entry expires or is invalidated.
func (s *Service) FindAvailable(ctx context.Context, spec *domain.Specialization) ([]*domain.Coach, error) {
	key := AvailableCacheKey(spec)

	var cached []coachSnapshot
	hit, err := sharedApplication.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if hit {
		if coaches, err := restoreAll(cached); err == nil {
			return coaches, nil
		}
		s.logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key)
	}

	var coaches []*domain.Coach
	if spec != nil {
		coaches, err = s.repo.FindBySpecialization(ctx, *spec)
	} else {
		coaches, err = s.repo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	snapshots := make([]coachSnapshot, 0, len(coaches))
	for _, c := range coaches {
		snapshots = append(snapshots, snapshotOf(c))
	}
	if err := sharedApplication.SetJSON(ctx, s.cache, key, snapshots, AvailableCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return coaches, nil
}

// Get returns the coach with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Coach, error) {
	return s.repo.FindByID(ctx, id)
}

// FindBestForMember picks the coach that best fits the member's goals and tier.
// It returns nil when no coach qualifies.
func (s *Service) FindBestForMember(ctx context.Context, memberID int64) (*domain.Coach, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	coaches, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindBestCoach(member, coaches), nil
}

// Delete removes a coach after invalidating the listings that could contain it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	coach, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, coach)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "coach deleted", "coach_id", id)
	return nil
}

// AddCertification records a qualification on the coach.
func (s *Service) AddCertification(ctx context.Context, coachID int64, cmd AddCertificationCommand) (*domain.Coach, error) {
	cert, err := domain.NewCertification(cmd.Name, cmd.IssuingBody, cmd.IssuedAt, cmd.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, coachID, func(c *domain.Coach) {
		c.AddCertification(cert)
	})
}

// AddAvailabilitySlot adds a weekly window to the coach's schedule.
func (s *Service) AddAvailabilitySlot(ctx context.Context, coachID int64, cmd AddAvailabilityCommand) (*domain.Coach, error) {
	day, err := domain.ParseWeekday(cmd.Day)
	if err != nil {
		return nil, err
	}
	slot, err := domain.NewAvailabilitySlot(day, cmd.StartHour, cmd.EndHour)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, coachID, func(c *domain.Coach) {
		c.AddAvailabilitySlot(slot)
	})
}

func (s *Service) mutate(ctx context.Context, coachID int64, fn func(*domain.Coach)) (*domain.Coach, error) {
	coach, err := s.repo.FindByID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	fn(coach)
	if err := s.repo.Save(ctx, coach); err != nil {
		return nil, err
	}
	s.invalidate(ctx, coach)
	sharedApplication.DispatchAll(ctx, s.dispatcher, coach.PullDomainEvents())
	return coach, nil
}

// invalidate drops every listing that can contain the coach.
// ListingCacheKeys returns every availability listing key the coach can
// appear under.
func ListingCacheKeys(coach *domain.Coach) []string {
	keys := make([]string, 0, len(coach.Specializations())+1)
	for _, spec := range coach.Specializations() {
		keys = append(keys, AvailableCacheKey(&spec))
	}
	return append(keys, availableKeyAll)
}

func (s *Service) invalidate(ctx context.Context, coach *domain.Coach) {
	keys := ListingCacheKeys(coach)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}

func restoreAll(snapshots []coachSnapshot) ([]*domain.Coach, error) {
	coaches := make([]*domain.Coach, 0, len(snapshots))
	for _, snap := range snapshots {
		c, err := snap.restore()
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, c)
	}
	return coaches, nil
}
