package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the durable queue the worker consumes from.
const DefaultConsumerQueueName = "studio.worker"

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Logger    *slog.Logger
}

// RabbitMQConsumer is a Listener over a durable queue bound to the topic
// exchange. Messages are acked one at a time after every consumer ran.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// NewRabbitMQConsumer dials the broker and declares the exchange and queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareQueue(ch, cfg.Exchange, cfg.QueueName); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", cfg.QueueName, "exchange", cfg.Exchange)
	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    cfg.QueueName,
		exchange: cfg.Exchange,
		registry: registry,
		logger:   cfg.Logger,
	}, nil
}

func declareQueue(ch *amqp.Channel, exchange, queue string) error {
	// durable, not auto-deleted, not internal, wait for the broker
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	// durable, not auto-deleted, shared between workers
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}

// RegisterConsumer registers an event consumer and binds the queue to its topics.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, topic, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "queue", c.queue, "topic", topic, "error", err)
			continue
		}
		c.logger.Debug("bound queue", "queue", c.queue, "topic", topic)
	}
}

// Start consumes until ctx is cancelled or Close is called, both of which
// return nil. A broker that drops the delivery channel is an error.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	runCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.end()

	// One unacked message at a time keeps handlers sequential.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.channel.ConsumeWithContext(runCtx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		if runCtx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consuming events", "queue", c.queue)
	for {
		select {
		case <-runCtx.Done():
			c.logger.Info("stopped consuming events", "queue", c.queue)
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				if runCtx.Err() != nil {
					return nil
				}
				return errors.New("delivery channel closed unexpectedly")
			}
			c.settle(runCtx, msg, c.registry.Deliver(runCtx, msg.RoutingKey, msg.Body))
		}
	}
}

func (c *RabbitMQConsumer) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return nil, errors.New("consumer closed")
	case c.cancel != nil:
		return nil, errors.New("consumer already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return runCtx, nil
}

func (c *RabbitMQConsumer) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

type deliveryOutcome int

const (
	ackDelivery deliveryOutcome = iota
	requeueDelivery
	rejectDelivery
)

// deliveryAction settles a message after dispatch. A failed message is
// requeued once; the redelivery is rejected so a poison message cannot loop.
// A body that is not an event envelope is rejected straight away.
func deliveryAction(err error, redelivered bool) deliveryOutcome {
	switch {
	case err == nil:
		return ackDelivery
	case errors.Is(err, ErrMalformedEvent), redelivered:
		return rejectDelivery
	default:
		return requeueDelivery
	}
}

func (c *RabbitMQConsumer) settle(ctx context.Context, msg amqp.Delivery, err error) {
	logger := c.logger.With("routing_key", msg.RoutingKey, "message_id", messageID(msg.Body))

	var settleErr error
	switch deliveryAction(err, msg.Redelivered) {
	case ackDelivery:
		settleErr = msg.Ack(false)
	case requeueDelivery:
		logger.WarnContext(ctx, "event delivery failed, requeueing", "error", err)
		settleErr = msg.Nack(false, true)
	case rejectDelivery:
		logger.ErrorContext(ctx, "event delivery failed, rejecting", "redelivered", msg.Redelivered, "error", err)
		settleErr = msg.Reject(false)
	}
	if settleErr != nil {
		logger.ErrorContext(ctx, "failed to settle message", "error", settleErr)
	}
}

// Close stops a running Start and releases the channel and connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err := c.channel.Close(); err != nil {
		c.logger.Warn("error closing channel", "error", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
