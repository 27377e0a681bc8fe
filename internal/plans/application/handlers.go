package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	"github.com/felixgeelhaar/studio/internal/plans/domain"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
)

// PlanCompletedPayload is the body of the plan.completed integration event.
type PlanCompletedPayload struct {
	PlanID   int64 `json:"plan_id"`
	MemberID int64 `json:"member_id"`
}

// SessionCompletedHandler logs finished sessions.
type SessionCompletedHandler struct {
	logger *slog.Logger
}

// NewSessionCompletedHandler creates a new SessionCompletedHandler.
func NewSessionCompletedHandler(logger *slog.Logger) *SessionCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCompletedHandler{logger: logger}
}

// Handle logs the completion.
func (h *SessionCompletedHandler) Handle(ctx context.Context, event sharedDomain.DomainEvent) error {
	completed, ok := event.(*domain.SessionCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	h.logger.InfoContext(ctx, "session completed",
		"plan_id", completed.PlanID,
		"session_id", completed.SessionID,
		"completed_at", completed.CompletedAt.Format(time.RFC3339),
	)
	return nil
}

// PlanCompletedHandler publishes finished plans, frees the member to start
// a new one and gives the coach its client slot back. All of it happens in
// one independent transaction.
type PlanCompletedHandler struct {
	members    memberDomain.Repository
	slots      coachSlots
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewPlanCompletedHandler creates a new PlanCompletedHandler.
func NewPlanCompletedHandler(
	members memberDomain.Repository,
	coaches coachDomain.Repository,
	cache sharedApplication.Cache,
	outboxRepo outbox.Writer,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *PlanCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanCompletedHandler{
		members:    members,
		slots:      coachSlots{coaches: coaches, cache: cache, logger: logger},
		outboxRepo: outboxRepo,
		uow:        uow,
		logger:     logger,
	}
}

// Handle writes plan.completed to the outbox, clears the member's active plan
// and releases the coach.
func (h *PlanCompletedHandler) Handle(ctx context.Context, event sharedDomain.DomainEvent) error {
	completed, ok := event.(*domain.PlanCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	msg, err := outbox.NewIntegrationMessage(eventbus.TopicPlanCompleted, completed, PlanCompletedPayload{
		PlanID:   completed.PlanID,
		MemberID: completed.MemberID,
	})
	if err != nil {
		return err
	}

	err = sharedApplication.WithNewUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.outboxRepo.Append(txCtx, msg); err != nil {
			return err
		}
		if err := h.slots.release(txCtx, completed.CoachID); err != nil {
			return err
		}

		member, err := h.members.FindByID(txCtx, completed.MemberID)
		if sharedDomain.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if activeID, ok := member.ActivePlanID(); !ok || activeID != completed.PlanID {
			return nil
		}
		member.ClearActivePlan()
		return h.members.Save(txCtx, member)
	})
	if err != nil {
		return fmt.Errorf("failed to handle completion of plan %d: %w", completed.PlanID, err)
	}

	h.logger.InfoContext(ctx, "queued integration event",
		"topic", eventbus.TopicPlanCompleted,
		"plan_id", completed.PlanID,
		"member_id", completed.MemberID,
		"coach_id", completed.CoachID,
	)
	return nil
}

// CompletionLogger consumes plan.completed messages from the broker.
type CompletionLogger struct {
	logger *slog.Logger
}

// NewCompletionLogger creates a new CompletionLogger.
func NewCompletionLogger(logger *slog.Logger) *CompletionLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompletionLogger{logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (c *CompletionLogger) EventTypes() []string {
	return []string{eventbus.TopicPlanCompleted}
}

// Handle implements eventbus.EventConsumer.
func (c *CompletionLogger) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload PlanCompletedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.RoutingKey, err)
	}
	c.logger.InfoContext(ctx, "member activity",
		"activity", "plan_completed",
		"plan_id", payload.PlanID,
		"member_id", payload.MemberID,
		"event_id", event.EventID,
	)
	return nil
}
