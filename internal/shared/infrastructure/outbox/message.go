package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is one row of the outbox table. Topic is the broker routing key
// and EventType the domain event that caused the message.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      int64
	EventType        string
	Topic            string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewIntegrationMessage wraps payload in the integration envelope consumers
// decode, taking identity and tracing data from the domain event that caused it.
func NewIntegrationMessage(topic string, cause domain.DomainEvent, payload any) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	meta := cause.Metadata()
	envelopeMeta := eventbus.EventMetadata{
		CorrelationID: meta.CorrelationID,
		RequestID:     meta.RequestID,
	}
	if meta.CausationID != uuid.Nil {
		envelopeMeta.CausationID = meta.CausationID.String()
	}

	envelope := eventbus.ConsumedEvent{
		EventID:       cause.EventID(),
		AggregateID:   cause.AggregateID(),
		AggregateType: cause.AggregateType(),
		RoutingKey:    topic,
		OccurredAt:    cause.OccurredAt(),
		Payload:       body,
		Metadata:      envelopeMeta,
	}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	metadata, err := json.Marshal(envelopeMeta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return &Message{
		EventID:       cause.EventID(),
		AggregateType: cause.AggregateType(),
		AggregateID:   cause.AggregateID(),
		EventType:     cause.RoutingKey(),
		Topic:         topic,
		Payload:       encoded,
		Metadata:      metadata,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
