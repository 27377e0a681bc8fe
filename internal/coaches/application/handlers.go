package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/studio/internal/coaches/domain"
	sharedDomain "github.com/felixgeelhaar/studio/internal/shared/domain"
)

// CoachRegisteredHandler logs new coaches.
type CoachRegisteredHandler struct {
	logger *slog.Logger
}

// NewCoachRegisteredHandler creates a new CoachRegisteredHandler.
func NewCoachRegisteredHandler(logger *slog.Logger) *CoachRegisteredHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoachRegisteredHandler{logger: logger}
}

// Handle logs the registration.
func (h *CoachRegisteredHandler) Handle(ctx context.Context, event sharedDomain.DomainEvent) error {
	registered, ok := event.(*domain.CoachRegistered)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	h.logger.InfoContext(ctx, "coach onboarded",
		"coach_id", registered.CoachID,
		"email", registered.Email,
		"full_name", registered.FullName,
	)
	return nil
}
