package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/studio/internal/members/domain"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
)

// MemberRegisteredPayload is the body of the member.registered integration event.
type MemberRegisteredPayload struct {
	MemberID int64  `json:"member_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// MemberRegisteredHandler announces new members to other services through the outbox.
type MemberRegisteredHandler struct {
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewMemberRegisteredHandler creates a new MemberRegisteredHandler.
func NewMemberRegisteredHandler(outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, logger *slog.Logger) *MemberRegisteredHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberRegisteredHandler{outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle writes the integration message in its own transaction.
func (h *MemberRegisteredHandler) Handle(ctx context.Context, event sharedDomain.DomainEvent) error {
	registered, ok := event.(*domain.MemberRegistered)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	msg, err := outbox.NewIntegrationMessage(eventbus.TopicMemberRegistered, registered, MemberRegisteredPayload{
		MemberID: registered.MemberID,
		Email:    registered.Email,
		FullName: registered.FullName,
	})
	if err != nil {
		return err
	}

	err = sharedApplication.WithNewUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.outboxRepo.Append(txCtx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", eventbus.TopicMemberRegistered, err)
	}

	h.logger.InfoContext(ctx, "queued integration event",
		"topic", eventbus.TopicMemberRegistered,
		"member_id", registered.MemberID,
	)
	return nil
}

// GoalAchievedHandler records goal achievements in the log.
type GoalAchievedHandler struct {
	logger *slog.Logger
}

// NewGoalAchievedHandler creates a new GoalAchievedHandler.
func NewGoalAchievedHandler(logger *slog.Logger) *GoalAchievedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalAchievedHandler{logger: logger}
}

// Handle logs the achievement.
func (h *GoalAchievedHandler) Handle(ctx context.Context, event sharedDomain.DomainEvent) error {
	achieved, ok := event.(*domain.GoalAchieved)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	h.logger.InfoContext(ctx, "goal achieved",
		"member_id", achieved.MemberID,
		"goal_id", achieved.GoalID,
		"goal_type", achieved.GoalType,
	)
	return nil
}

// ActivityLogger consumes member.registered messages from the broker and
// writes a member activity line per message.
type ActivityLogger struct {
	logger *slog.Logger
}

// NewActivityLogger creates a new ActivityLogger.
func NewActivityLogger(logger *slog.Logger) *ActivityLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityLogger{logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (a *ActivityLogger) EventTypes() []string {
	return []string{eventbus.TopicMemberRegistered}
}

// Handle implements eventbus.EventConsumer.
func (a *ActivityLogger) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload MemberRegisteredPayload
	if err := event.DecodePayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.RoutingKey, err)
	}
	a.logger.InfoContext(ctx, "member activity",
		"activity", "registered",
		"member_id", payload.MemberID,
		"email", payload.Email,
		"full_name", payload.FullName,
		"event_id", event.EventID,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
