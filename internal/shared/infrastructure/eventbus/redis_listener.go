package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisListener subscribes to integration channels and feeds them to consumers.
type RedisListener struct {
	client   *redis.Client
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewRedisListener creates a listener. Channels are the topics of registered consumers.
func NewRedisListener(client *redis.Client, registry *ConsumerRegistry, logger *slog.Logger) *RedisListener {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewConsumerRegistry(logger)
	}
	return &RedisListener{
		client:   client,
		registry: registry,
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (l *RedisListener) RegisterConsumer(consumer EventConsumer) {
	l.registry.Register(consumer)
}

// Start subscribes and dispatches messages until ctx is cancelled, then
// unsubscribes and returns nil.
func (l *RedisListener) Start(ctx context.Context) error {
	channels := l.registry.GetAllEventTypes()
	if len(channels) == 0 {
		return errors.New("no consumers registered")
	}

	pubsub := l.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	l.mu.Lock()
	l.pubsub = pubsub
	l.mu.Unlock()

	l.logger.Info("listening for events", "channels", channels)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			l.shutdown(channels)
			return nil

		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("subscription closed unexpectedly")
			}
			l.handle(ctx, msg)
		}
	}
}

func (l *RedisListener) handle(ctx context.Context, msg *redis.Message) {
	// Pub/sub has no redelivery, so failures are only logged.
	if err := l.registry.Deliver(ctx, msg.Channel, []byte(msg.Payload)); err != nil {
		l.logger.ErrorContext(ctx, "event delivery failed", "channel", msg.Channel, "error", err)
	}
}

func (l *RedisListener) shutdown(channels []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pubsub == nil {
		return
	}
	unsubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.pubsub.Unsubscribe(unsubCtx, channels...); err != nil {
		l.logger.Warn("error unsubscribing", "error", err)
	}
	if err := l.pubsub.Close(); err != nil {
		l.logger.Warn("error closing subscription", "error", err)
	}
	l.pubsub = nil
	l.logger.Info("stopped listening for events")
}

// Close ends an active subscription. The client stays open.
func (l *RedisListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pubsub == nil {
		return nil
	}
	err := l.pubsub.Close()
	l.pubsub = nil
	return err
}
