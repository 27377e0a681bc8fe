package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/studio/internal/members/domain"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// RegisterMemberCommand contains the data needed to register a member.
type RegisterMemberCommand struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	FitnessLevel   string
	MembershipTier string
	// ValidUntil defaults to today plus DefaultMembershipDays.
	ValidUntil *time.Time
}

// AddGoalCommand describes a new fitness goal.
type AddGoalCommand struct {
	GoalType    string
	Description string
	TargetDate  time.Time
}

// Service coordinates member use cases. Callers own the transaction;
// the service runs inside whatever unit of work ctx carries.
type Service struct {
	repo       domain.Repository
	dispatcher sharedApplication.EventDispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new member service.
func NewService(repo domain.Repository, dispatcher sharedApplication.EventDispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a member with a unique email address.
func (s *Service) Register(ctx context.Context, cmd RegisterMemberCommand) (*domain.Member, error) {
	name, err := sharedDomain.NewFullName(cmd.FirstName, cmd.LastName)
	if err != nil {
		return nil, err
	}
	email, err := sharedDomain.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}
	phone, err := sharedDomain.NewPhone(cmd.Phone)
	if err != nil {
		return nil, err
	}
	level, err := domain.ParseFitnessLevel(cmd.FitnessLevel)
	if err != nil {
		return nil, err
	}
	tierValue := cmd.MembershipTier
	if tierValue == "" {
		tierValue = string(domain.TierFree)
	}
	tier, err := domain.ParseMembershipTier(tierValue)
	if err != nil {
		return nil, err
	}
	validUntil := s.now().AddDate(0, 0, domain.DefaultMembershipDays)
	if cmd.ValidUntil != nil {
		validUntil = *cmd.ValidUntil
	}
	membership, err := domain.NewMembership(tier, validUntil)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, email.String())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, sharedDomain.Invariantf("email %s is already registered", email)
	}

	member := domain.RegisterMember(name, email, phone, level, membership)
	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "member registered",
		"member_id", member.ID(),
		"email", email.String(),
	)

	sharedApplication.DispatchAll(ctx, s.dispatcher, member.PullDomainEvents())
	return member, nil
}

// Get returns the member with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Member, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns every member.
func (s *Service) List(ctx context.Context) ([]*domain.Member, error) {
	return s.repo.FindAll(ctx)
}

// Delete removes a member and their goals.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "member deleted", "member_id", id)
	return nil
}

// AddGoal appends a goal, subject to the member's tier limit.
func (s *Service) AddGoal(ctx context.Context, memberID int64, cmd AddGoalCommand) (*domain.Member, error) {
	goalType, err := domain.ParseGoalType(cmd.GoalType)
	if err != nil {
		return nil, err
	}
	goal, err := domain.NewFitnessGoal(goalType, cmd.Description, cmd.TargetDate, s.now())
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, memberID, func(m *domain.Member) error {
		return m.AddGoal(goal)
	})
}

// AchieveGoal marks one of the member's goals as achieved.
func (s *Service) AchieveGoal(ctx context.Context, memberID, goalID int64) (*domain.Member, error) {
	return s.mutate(ctx, memberID, func(m *domain.Member) error {
		return m.AchieveGoal(goalID)
	})
}

// UpgradeMembership replaces the member's tier and validity. A nil validUntil
// keeps the current end date.
func (s *Service) UpgradeMembership(ctx context.Context, memberID int64, tier string, validUntil *time.Time) (*domain.Member, error) {
	newTier, err := domain.ParseMembershipTier(tier)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, memberID, func(m *domain.Member) error {
		until := m.Membership().ValidUntil()
		if validUntil != nil {
			until = *validUntil
		}
		membership, err := domain.NewMembership(newTier, until)
		if err != nil {
			return err
		}
		m.UpgradeMembership(membership)
		return nil
	})
}

// ClearActivePlan frees the member to start another plan.
func (s *Service) ClearActivePlan(ctx context.Context, memberID int64) (*domain.Member, error) {
	return s.mutate(ctx, memberID, func(m *domain.Member) error {
		m.ClearActivePlan()
		return nil
	})
}

// mutate loads a member, applies fn, saves and dispatches recorded events.
func (s *Service) mutate(ctx context.Context, memberID int64, fn func(*domain.Member) error) (*domain.Member, error) {
	member, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := fn(member); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, member); err != nil {
		return nil, err
	}

	sharedApplication.DispatchAll(ctx, s.dispatcher, member.PullDomainEvents())
	return member, nil
}
