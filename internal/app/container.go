package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	coachApp "github.com/felixgeelhaar/studio/internal/coaches/application"
	coachDomain "github.com/felixgeelhaar/studio/internal/coaches/domain"
	memberApp "github.com/felixgeelhaar/studio/internal/members/application"
	memberDomain "github.com/felixgeelhaar/studio/internal/members/domain"
	planApp "github.com/felixgeelhaar/studio/internal/plans/application"
	planDomain "github.com/felixgeelhaar/studio/internal/plans/domain"
	"github.com/felixgeelhaar/studio/internal/plans/infrastructure/exercises"
	sharedApplication "github.com/felixgeelhaar/studio/internal/shared/application"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/studio/pkg/config"
	"github.com/felixgeelhaar/studio/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DB          database.Connection
	RedisClient *redis.Client
	Cache       sharedApplication.Cache

	MemberRepo memberDomain.Repository
	CoachRepo  coachDomain.Repository
	PlanRepo   planDomain.Repository
	OutboxRepo outbox.Repository

	UnitOfWork sharedApplication.UnitOfWork
	Dispatcher *eventbus.Dispatcher
	Exercises  planApp.ExerciseLookup

	Members *memberApp.Service
	Coaches *coachApp.Service
	Plans   *planApp.Service

	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry
}

// Option customises container construction.
type Option func(*options)

type options struct {
	exercises planApp.ExerciseLookup
	cache     sharedApplication.Cache
}

// WithExerciseLookup replaces the catalogue client.
func WithExerciseLookup(lookup planApp.ExerciseLookup) Option {
	return func(o *options) { o.exercises = lookup }
}

// WithCache replaces the configured cache.
func WithCache(c sharedApplication.Cache) Option {
	return func(o *options) { o.cache = c }
}

// NewContainer connects to the configured stores and wires the services.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(2 * time.Second),
	}

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = conn
	logger.Info("connected to database", "driver", conn.Driver())

	if cfg.AutoMigrate {
		if err := migrations.Run(ctx, conn); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	c.Health.Register("database", observability.PingChecker("database", true, conn.Ping))

	if err := c.connectRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.Cache = o.cache
	if c.Cache == nil {
		c.Cache = c.newCache()
	}

	factory := NewRepositoryFactory(conn)
	c.MemberRepo = factory.MemberRepository()
	c.CoachRepo = factory.CoachRepository()
	c.PlanRepo = factory.PlanRepository()
	c.OutboxRepo = factory.OutboxRepository()
	c.UnitOfWork = database.NewUnitOfWork(conn)

	c.Exercises = o.exercises
	if c.Exercises == nil {
		c.Exercises = exercises.NewWgerClient(exercises.Config{
			BaseURL: cfg.ExerciseAPIURL,
			Timeout: cfg.ExerciseAPITimeout,
		}, logger)
	}

	c.Dispatcher = eventbus.NewDispatcher(logger)
	c.registerHandlers()

	c.Members = memberApp.NewService(c.MemberRepo, c.Dispatcher, logger)
	c.Coaches = coachApp.NewService(c.CoachRepo, c.MemberRepo, c.Cache, c.Dispatcher, logger)
	c.Plans = planApp.NewService(c.PlanRepo, c.MemberRepo, c.CoachRepo, c.Cache, c.Exercises, c.Dispatcher, logger)

	return c, nil
}

// connectRedis opens the Redis client when the cache or the broker needs it.
// Outside production an unreachable Redis only disables those features.
func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" || (!cfg.UsesRedisCache() && cfg.Broker != config.BrokerRedis) {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.IsProduction() || cfg.Broker == config.BrokerRedis {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, using in-memory cache", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Health.Register("redis", observability.PingChecker("redis", false, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) newCache() sharedApplication.Cache {
	switch {
	case !c.Config.CacheEnabled:
		return cache.NoopCache{}
	case c.RedisClient != nil && c.Config.UsesRedisCache():
		return cache.NewRedisCache(c.RedisClient, "studio:")
	default:
		return cache.NewMemoryCache()
	}
}

// registerHandlers subscribes the in-process reactions to domain events.
func (c *Container) registerHandlers() {
	d := c.Dispatcher
	d.Register(memberDomain.RoutingKeyMemberRegistered, memberApp.NewMemberRegisteredHandler(c.OutboxRepo, c.UnitOfWork, c.Logger))
	d.Register(memberDomain.RoutingKeyGoalAchieved, memberApp.NewGoalAchievedHandler(c.Logger))
	d.Register(coachDomain.RoutingKeyCoachRegistered, coachApp.NewCoachRegisteredHandler(c.Logger))
	d.Register(planDomain.RoutingKeySessionCompleted, planApp.NewSessionCompletedHandler(c.Logger))
	d.Register(planDomain.RoutingKeyPlanCompleted, planApp.NewPlanCompletedHandler(c.MemberRepo, c.CoachRepo, c.Cache, c.OutboxRepo, c.UnitOfWork, c.Logger))
}

// InTransaction runs fn inside one unit of work.
func (c *Container) InTransaction(ctx context.Context, fn sharedApplication.UnitOfWorkFunc) error {
	return sharedApplication.WithUnitOfWork(ctx, c.UnitOfWork, fn)
}

// Messaging is the broker side of the container: the outbox processor and
// the listener feeding integration consumers.
type Messaging struct {
	Publisher eventbus.Publisher
	Listener  eventbus.Listener
	Processor *outbox.Processor
}

// Close releases the broker connections.
func (m *Messaging) Close() error {
	m.Processor.Stop()
	if m.Listener != nil {
		if err := m.Listener.Close(); err != nil {
			return err
		}
	}
	return m.Publisher.Close()
}

// NewMessaging connects to the configured broker and registers the
// integration consumers. BROKER=none yields a noop publisher and no listener.
func (c *Container) NewMessaging() (*Messaging, error) {
	cfg := c.Config
	registry := eventbus.NewConsumerRegistry(c.Logger)

	var m Messaging
	switch cfg.Broker {
	case config.BrokerRabbitMQ:
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		if err != nil {
			return nil, err
		}
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: c.Logger,
		}, registry)
		if err != nil {
			_ = publisher.Close()
			return nil, err
		}
		m.Publisher, m.Listener = publisher, consumer
	case config.BrokerRedis:
		if c.RedisClient == nil {
			return nil, fmt.Errorf("redis broker selected but Redis is not connected")
		}
		m.Publisher = eventbus.NewRedisPublisher(c.RedisClient, c.Logger)
		m.Listener = eventbus.NewRedisListener(c.RedisClient, registry, c.Logger)
	case config.BrokerInProcess:
		bus := eventbus.NewInProcessEventBus(c.Logger)
		m.Publisher, m.Listener = bus, bus
	default:
		m.Publisher = eventbus.NewNoopPublisher(c.Logger)
	}

	if m.Listener != nil {
		m.Listener.RegisterConsumer(memberApp.NewActivityLogger(c.Logger))
		m.Listener.RegisterConsumer(planApp.NewCompletionLogger(c.Logger))
	}

	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	m.Processor = outbox.NewProcessor(c.OutboxRepo, m.Publisher, processorConfig, c.Logger)

	c.Logger.Info("messaging configured", "broker", cfg.Broker)
	return &m, nil
}

// RecordOutboxStats copies the processor counters into the metrics gauges.
func (c *Container) RecordOutboxStats(p *outbox.Processor) {
	stats := p.GetStats()
	c.Metrics.Gauge(observability.MetricOutboxPublished, float64(stats.PublishedCount))
	c.Metrics.Gauge(observability.MetricOutboxFailed, float64(stats.FailedCount))
	c.Metrics.Gauge(observability.MetricOutboxDead, float64(stats.DeadCount))
}

// Close waits for background event handlers and releases all resources.
func (c *Container) Close() {
	if c.Dispatcher != nil {
		c.Dispatcher.Wait()
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error("failed to close Redis client", "error", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Error("failed to close database", "error", err)
		}
	}
}
