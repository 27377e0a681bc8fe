package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrMalformedEvent marks a broker message whose body is not an event envelope.
var ErrMalformedEvent = errors.New("malformed event")

// ConsumerFunc adapts a function into an EventConsumer for the given topics.
func ConsumerFunc(fn func(ctx context.Context, event *ConsumedEvent) error, topics ...string) EventConsumer {
	return &funcConsumer{fn: fn, topics: topics}
}

type funcConsumer struct {
	fn     func(ctx context.Context, event *ConsumedEvent) error
	topics []string
}

func (c *funcConsumer) EventTypes() []string { return c.topics }

func (c *funcConsumer) Handle(ctx context.Context, event *ConsumedEvent) error {
	return c.fn(ctx, event)
}

// ConsumerRegistry manages event consumers and dispatches events to them.
type ConsumerRegistry struct {
	consumers map[string][]EventConsumer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewConsumerRegistry creates a new consumer registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		consumers: make(map[string][]EventConsumer),
		logger:    logger,
	}
}

// Register adds a consumer for its declared event types.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range consumer.EventTypes() {
		r.consumers[eventType] = append(r.consumers[eventType], consumer)
		r.logger.Debug("registered consumer for event type",
			"event_type", eventType,
		)
	}
}

// GetConsumers returns all consumers registered for the given event type.
func (r *ConsumerRegistry) GetConsumers(eventType string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.consumers[eventType]
}

// GetAllEventTypes returns the registered event types in sorted order.
func (r *ConsumerRegistry) GetAllEventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.consumers))
	for t := range r.consumers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatch sends an event to every consumer registered for its topic.
// A failing consumer does not stop the others; all failures are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.GetConsumers(event.RoutingKey)

	if len(consumers) == 0 {
		r.logger.Debug("no consumers for event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Deliver decodes a raw broker message and dispatches it. topic fills in the
// routing key when the envelope carries none.
func (r *ConsumerRegistry) Deliver(ctx context.Context, topic string, body []byte) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		return fmt.Errorf("%w on %s: %v", ErrMalformedEvent, topic, err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = topic
	}

	start := time.Now()
	err := r.Dispatch(ctx, event)
	r.logger.DebugContext(ctx, "event delivered",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", err == nil,
	)
	return err
}

// ConsumerCount returns the total number of registered consumer instances.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, consumers := range r.consumers {
		count += len(consumers)
	}
	return count
}
