package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Integration topics carried over the broker.
const (
	TopicMemberRegistered = "member.registered"
	TopicPlanCompleted    = "plan.completed"
)

// EventConsumer handles integration events received from the broker.
type EventConsumer interface {
	// EventTypes returns the topics this consumer handles.
	// e.g., ["member.registered", "plan.completed"]
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope of an integration event on the wire.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   int64           `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata contains optional metadata about the event.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// DecodePayload unmarshals the event payload into dst.
func (e *ConsumedEvent) DecodePayload(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}

// Listener is a long-lived subscriber that feeds broker messages to consumers.
type Listener interface {
	// Start blocks until ctx is cancelled or the subscription fails.
	// Cancellation is a clean shutdown and returns nil.
	Start(ctx context.Context) error

	// RegisterConsumer registers an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close releases the broker connection.
	Close() error
}
