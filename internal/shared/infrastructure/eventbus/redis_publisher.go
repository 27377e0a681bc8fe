package eventbus

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes envelopes on a Redis channel named after the topic.
type RedisPublisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisPublisher creates a publisher over an existing client.
func NewRedisPublisher(client *redis.Client, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{client: client, logger: logger}
}

// Publish sends payload to the routingKey channel.
func (p *RedisPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	receivers, err := p.client.Publish(ctx, routingKey, payload).Result()
	if err != nil {
		p.logger.Error("failed to publish message",
			"channel", routingKey,
			"error", err,
		)
		return err
	}

	p.logger.Debug("message published",
		"channel", routingKey,
		"receivers", receivers,
		"size", len(payload),
	)
	return nil
}

// Close leaves the shared client open; the container owns it.
func (p *RedisPublisher) Close() error {
	return nil
}
