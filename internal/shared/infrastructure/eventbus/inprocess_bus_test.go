package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	consumer := &mockConsumer{
		eventTypes: []string{eventbus.TopicMemberRegistered},
	}
	bus.RegisterConsumer(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   7,
		AggregateType: "Member",
		RoutingKey:    eventbus.TopicMemberRegistered,
		OccurredAt:    time.Now(),
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	ctx := context.Background()
	err = bus.Publish(ctx, eventbus.TopicMemberRegistered, payload)
	require.NoError(t, err)

	// Consumer should have received the event
	assert.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
}

func TestInProcessEventBus_PublishConsumedEvent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	consumer := &mockConsumer{
		eventTypes: []string{eventbus.TopicMemberRegistered},
	}
	bus.RegisterConsumer(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   7,
		AggregateType: "Member",
		RoutingKey:    eventbus.TopicMemberRegistered,
		OccurredAt:    time.Now(),
	}

	ctx := context.Background()
	err := bus.PublishConsumedEvent(ctx, event)
	require.NoError(t, err)

	// Consumer should have received the event
	assert.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
}

func TestInProcessEventBus_MultipleConsumers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	consumer1 := &mockConsumer{
		eventTypes: []string{eventbus.TopicMemberRegistered},
	}
	consumer2 := &mockConsumer{
		eventTypes: []string{eventbus.TopicMemberRegistered},
	}

	bus.RegisterConsumer(consumer1)
	bus.RegisterConsumer(consumer2)

	event := &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: eventbus.TopicMemberRegistered,
	}

	ctx := context.Background()
	err := bus.PublishConsumedEvent(ctx, event)
	require.NoError(t, err)

	// Both consumers should have received the event
	assert.Len(t, consumer1.events, 1)
	assert.Len(t, consumer2.events, 1)
}

func TestInProcessEventBus_NoConsumers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	event := &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: "unknown.event.type",
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	ctx := context.Background()
	err = bus.Publish(ctx, "unknown.event.type", payload)

	// Should not error, just succeed silently
	require.NoError(t, err)
}

func TestInProcessEventBus_ConsumerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	consumer := &mockConsumer{
		eventTypes: []string{eventbus.TopicMemberRegistered},
		err:        errors.New("consumer error"),
	}
	bus.RegisterConsumer(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: eventbus.TopicMemberRegistered,
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	ctx := context.Background()
	err = bus.Publish(ctx, eventbus.TopicMemberRegistered, payload)

	// In local mode, errors are logged but not returned
	require.NoError(t, err)
	// Event should still have been passed to consumer
	assert.Len(t, consumer.events, 1)
}

func TestInProcessEventBus_InvalidPayload(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	consumer := &mockConsumer{
		eventTypes: []string{eventbus.TopicMemberRegistered},
	}
	bus.RegisterConsumer(consumer)

	ctx := context.Background()
	// Send invalid JSON
	err := bus.Publish(ctx, eventbus.TopicMemberRegistered, []byte("invalid json"))

	// Should not error, just log and skip
	require.NoError(t, err)
	// Consumer should not have received anything
	assert.Empty(t, consumer.events)
}

func TestInProcessEventBus_Close(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	err := bus.Close()
	require.NoError(t, err)
}

func TestInProcessEventBus_GetRegistry(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInProcessEventBus(logger)

	registry := bus.GetRegistry()
	assert.NotNil(t, registry)
}

func TestInProcessEventBus_StartReturnsNilOnCancel(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bus.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
