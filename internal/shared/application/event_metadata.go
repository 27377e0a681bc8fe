package application

import (
	"context"

	"github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/pkg/observability"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata creates command-scoped metadata for domain events, carrying
// the correlation and request ids found in ctx.
func NewEventMetadata(ctx context.Context) domain.EventMetadata {
	correlationID := observability.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	return domain.EventMetadata{
		CorrelationID: correlationID,
		RequestID:     observability.RequestIDFromContext(ctx),
		CausationID:   uuid.New(),
	}
}

// ApplyEventMetadata sets metadata on all events that support it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
