package application

import (
	"context"

	"github.com/felixgeelhaar/studio/internal/shared/domain"
)

// EventDispatcher delivers domain events to the handlers registered for them.
type EventDispatcher interface {
	// Run executes handlers in the caller's flow and returns the first error.
	Run(ctx context.Context, event domain.DomainEvent) error
	// RunInBackground executes handlers concurrently, detached from the caller.
	RunInBackground(ctx context.Context, event domain.DomainEvent)
}

// DispatchAll stamps metadata from ctx onto events and hands each to the
// dispatcher in the background.
func DispatchAll(ctx context.Context, d EventDispatcher, events []domain.DomainEvent) {
	if d == nil || len(events) == 0 {
		return
	}
	ApplyEventMetadata(events, NewEventMetadata(ctx))
	for _, event := range events {
		d.RunInBackground(ctx, event)
	}
}
