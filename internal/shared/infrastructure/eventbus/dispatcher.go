package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
)

// Handler reacts to a domain event.
type Handler interface {
	Handle(ctx context.Context, event domain.DomainEvent) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ctx context.Context, event domain.DomainEvent) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event domain.DomainEvent) error {
	return f(ctx, event)
}

type registeredHandler struct {
	name    string
	handler Handler
}

// Dispatcher routes domain events to handlers registered by routing key.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]registeredHandler
	logger   *slog.Logger
	inflight sync.WaitGroup
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[string][]registeredHandler),
		logger:   logger,
	}
}

// Register adds h to the handlers of routingKey. Handlers run in registration order.
func (d *Dispatcher) Register(routingKey string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := fmt.Sprintf("%T", h)
	d.handlers[routingKey] = append(d.handlers[routingKey], registeredHandler{name: name, handler: h})
	d.logger.Debug("registered event handler",
		"routing_key", routingKey,
		"handler", name,
	)
}

// HandlerCount returns how many handlers are registered for routingKey.
func (d *Dispatcher) HandlerCount(routingKey string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[routingKey])
}

func (d *Dispatcher) handlersFor(routingKey string) []registeredHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]registeredHandler(nil), d.handlers[routingKey]...)
}

// Run executes the handlers of event one after another in the caller's
// context. The first failure is returned and the remaining handlers are skipped.
func (d *Dispatcher) Run(ctx context.Context, event domain.DomainEvent) error {
	for _, h := range d.handlersFor(event.RoutingKey()) {
		if err := h.handler.Handle(ctx, event); err != nil {
			return fmt.Errorf("%s handling %s: %w", h.name, event.RoutingKey(), err)
		}
	}
	return nil
}

// RunInBackground starts every handler of event in its own goroutine. The
// handlers see a context that outlives the caller and carries no transaction,
// so each must open its own unit of work. Failures are logged, never returned.
func (d *Dispatcher) RunInBackground(ctx context.Context, event domain.DomainEvent) {
	handlers := d.handlersFor(event.RoutingKey())
	if len(handlers) == 0 {
		return
	}

	detached := database.WithoutTx(context.WithoutCancel(ctx))
	for _, h := range handlers {
		d.inflight.Add(1)
		go d.runDetached(detached, h, event)
	}
}

func (d *Dispatcher) runDetached(ctx context.Context, h registeredHandler, event domain.DomainEvent) {
	defer d.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				"routing_key", event.RoutingKey(),
				"event_id", event.EventID(),
				"handler", h.name,
				"panic", r,
			)
		}
	}()

	if err := h.handler.Handle(ctx, event); err != nil {
		d.logger.Error("background event handler failed",
			"routing_key", event.RoutingKey(),
			"event_id", event.EventID(),
			"handler", h.name,
			"error", err,
		)
	}
}

// Wait blocks until all background handlers have returned.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}
