package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	"github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

const (
	// ExerciseCacheTTL bounds how long resolved exercise metadata is reused.
	ExerciseCacheTTL = time.Hour

	// UnknownExerciseID marks an exercise the catalogue could not resolve.
	UnknownExerciseID = "0"
)

// ExerciseCacheKey returns the cache key for an exercise name.
func ExerciseCacheKey(name string) string {
	return "exercise:" + strings.ToLower(name)
}

// CreatePlanCommand contains the data needed to draft a plan.
type CreatePlanCommand struct {
	MemberID  int64
	CoachID   int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// ExerciseRequest is one requested line item of a session. Nil volume
// fields take the planned-exercise defaults; zero is kept as given.
type ExerciseRequest struct {
	Name        string
	Sets        *int
	Reps        *int
	RestSeconds *int
}

func (r ExerciseRequest) volume() (sets, reps, rest int) {
	return valueOr(r.Sets, domain.DefaultSets), valueOr(r.Reps, domain.DefaultReps), valueOr(r.RestSeconds, domain.DefaultRestSeconds)
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// AddSessionCommand describes a workout session to add to a draft plan.
type AddSessionCommand struct {
	Name          string
	ScheduledDate time.Time
	Exercises     []ExerciseRequest
}

// Service coordinates training plan use cases.
type Service struct {
	plans      domain.Repository
	members    memberDomain.Repository
	coaches    coachDomain.Repository
	slots      coachSlots
	cache      sharedApplication.Cache
	exercises  ExerciseLookup
	dispatcher sharedApplication.EventDispatcher
	progress   *domain.ProgressService
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new training plan service.
func NewService(
	plans domain.Repository,
	members memberDomain.Repository,
	coaches coachDomain.Repository,
	cache sharedApplication.Cache,
	exercises ExerciseLookup,
	dispatcher sharedApplication.EventDispatcher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		plans:      plans,
		members:    members,
		coaches:    coaches,
		slots:      coachSlots{coaches: coaches, cache: cache, logger: logger},
		cache:      cache,
		exercises:  exercises,
		dispatcher: dispatcher,
		progress:   domain.NewProgressService(),
		logger:     logger,
		now:        time.Now,
	}
}

// CreatePlan drafts a plan for a member who has no active plan.
func (s *Service) CreatePlan(ctx context.Context, cmd CreatePlanCommand) (*domain.TrainingPlan, error) {
	member, err := s.members.FindByID(ctx, cmd.MemberID)
	if err != nil {
		return nil, err
	}
	if activeID, ok := member.ActivePlanID(); ok {
		return nil, sharedDomain.Invariantf("member %d already has an active plan (%d)", cmd.MemberID, activeID)
	}
	if _, err := s.coaches.FindByID(ctx, cmd.CoachID); err != nil {
		return nil, err
	}

	plan, err := domain.CreatePlan(cmd.MemberID, cmd.CoachID, cmd.Name, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "plan created",
		"plan_id", plan.ID(),
		"member_id", cmd.MemberID,
		"coach_id", cmd.CoachID,
	)

	sharedApplication.DispatchAll(ctx, s.dispatcher, plan.PullDomainEvents())
	return plan, nil
}

// AddSession resolves each exercise against the catalogue and appends the
// session to a draft plan.
func (s *Service) AddSession(ctx context.Context, planID int64, cmd AddSessionCommand) (*domain.TrainingPlan, error) {
	exercises, err := s.ResolveExercises(ctx, cmd.Exercises)
	if err != nil {
		return nil, err
	}
	return s.AddPlannedSession(ctx, planID, cmd.Name, cmd.ScheduledDate, exercises)
}

// ResolveExercises turns requests into planned exercises, looking each name
// up in the catalogue. It reads only the cache and the catalogue, so callers
// can run it before opening a unit of work.
func (s *Service) ResolveExercises(ctx context.Context, reqs []ExerciseRequest) ([]domain.PlannedExercise, error) {
	exercises := make([]domain.PlannedExercise, 0, len(reqs))
	for _, req := range reqs {
		sets, reps, rest := req.volume()
		exercise, err := domain.NewPlannedExercise(UnknownExerciseID, req.Name, sets, reps, rest)
		if err != nil {
			return nil, err
		}
		info := s.resolveExercise(ctx, req.Name)
		exercises = append(exercises, exercise.WithCatalogueEntry(info.ExerciseID, info.Name))
	}
	return exercises, nil
}

// AddPlannedSession appends a session of resolved exercises to a draft plan.
func (s *Service) AddPlannedSession(ctx context.Context, planID int64, name string, scheduledDate time.Time, exercises []domain.PlannedExercise) (*domain.TrainingPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	session, err := domain.NewWorkoutSession(name, scheduledDate, exercises)
	if err != nil {
		return nil, err
	}
	if err := plan.AddSession(session); err != nil {
		return nil, err
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}

	sharedApplication.DispatchAll(ctx, s.dispatcher, plan.PullDomainEvents())
	return plan, nil
}

// resolveExercise reads the catalogue entry for name through the cache.
// Lookup and cache failures fall back to an unknown entry carrying the requested name.
func (s *Service) resolveExercise(ctx context.Context, name string) ExerciseInfo {
	key := ExerciseCacheKey(name)

	var info ExerciseInfo
	hit, err := sharedApplication.GetJSON(ctx, s.cache, key, &info)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	if hit {
		return info
	}

	info = ExerciseInfo{ExerciseID: UnknownExerciseID, Name: name}
	if results := s.exercises.SearchExercises(ctx, name); len(results) > 0 {
		info = results[0]
	}
	if err := sharedApplication.SetJSON(ctx, s.cache, key, info, ExerciseCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return info
}

// ActivatePlan starts a draft plan, makes it the member's active plan and
// takes one of the coach's client slots. VIP coaches only take VIP members.
func (s *Service) ActivatePlan(ctx context.Context, planID int64) (*domain.TrainingPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	member, err := s.members.FindByID(ctx, plan.MemberID())
	if err != nil {
		return nil, err
	}
	coach, err := s.coaches.FindByID(ctx, plan.CoachID())
	if err != nil {
		return nil, err
	}

	// All checks run before any aggregate is written.
	if err := plan.Activate(); err != nil {
		return nil, err
	}
	if err := member.AssignPlan(planID); err != nil {
		return nil, err
	}
	if err := coach.AcceptClient(member.Membership().Tier()); err != nil {
		return nil, fmt.Errorf("coach %d cannot take member %d: %w", coach.ID(), member.ID(), err)
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.members.Save(ctx, member); err != nil {
		return nil, err
	}
	if err := s.slots.save(ctx, coach); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "plan activated",
		"plan_id", planID,
		"member_id", plan.MemberID(),
		"coach_id", coach.ID(),
		"coach_clients", coach.CurrentClientCount(),
	)

	sharedApplication.DispatchAll(ctx, s.dispatcher, plan.PullDomainEvents())
	return plan, nil
}

// CompleteSession completes one session and may complete the whole plan.
func (s *Service) CompleteSession(ctx context.Context, planID, sessionID int64, notes *string) (*domain.TrainingPlan, error) {
	return s.mutate(ctx, planID, func(p *domain.TrainingPlan) error {
		if err := p.CompleteSession(sessionID, notes, s.now()); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "session completed", "plan_id", planID, "session_id", sessionID)
		return nil
	})
}

// SkipSession skips one session and may complete the whole plan.
func (s *Service) SkipSession(ctx context.Context, planID, sessionID int64) (*domain.TrainingPlan, error) {
	return s.mutate(ctx, planID, func(p *domain.TrainingPlan) error {
		return p.SkipSession(sessionID)
	})
}

// CancelPlan cancels a draft or active plan and releases the member from it.
// Cancelling an active plan also frees its coach's client slot.
func (s *Service) CancelPlan(ctx context.Context, planID int64) (*domain.TrainingPlan, error) {
	var wasActive bool
	plan, err := s.mutate(ctx, planID, func(p *domain.TrainingPlan) error {
		wasActive = p.Status() == domain.PlanStatusActive
		return p.Cancel()
	})
	if err != nil {
		return nil, err
	}
	if wasActive {
		if err := s.slots.release(ctx, plan.CoachID()); err != nil {
			return nil, err
		}
	}

	member, err := s.members.FindByID(ctx, plan.MemberID())
	if err != nil {
		return nil, err
	}
	if activeID, ok := member.ActivePlanID(); ok && activeID == planID {
		member.ClearActivePlan()
		if err := s.members.Save(ctx, member); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// GetProgress returns the share of finished sessions as a percentage.
func (s *Service) GetProgress(ctx context.Context, planID int64) (float64, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return 0, err
	}
	return s.progress.CompletionPct(plan), nil
}

// Get returns the plan with the given id.
func (s *Service) Get(ctx context.Context, planID int64) (*domain.TrainingPlan, error) {
	return s.plans.FindByID(ctx, planID)
}

// ListByMember returns the member's plans, oldest first.
func (s *Service) ListByMember(ctx context.Context, memberID int64) ([]*domain.TrainingPlan, error) {
	return s.plans.FindByMember(ctx, memberID)
}

func (s *Service) mutate(ctx context.Context, planID int64, fn func(*domain.TrainingPlan) error) (*domain.TrainingPlan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := fn(plan); err != nil {
		return nil, err
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, err
	}

	sharedApplication.DispatchAll(ctx, s.dispatcher, plan.PullDomainEvents())
	return plan, nil
}
