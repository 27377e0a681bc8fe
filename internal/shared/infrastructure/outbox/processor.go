package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is the number of failed attempts after which a message is
	// dead-lettered. Zero or less dead-letters on the first failure.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns the settings the worker starts with.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// Stats is a snapshot of processor counters since start.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

func (s *Stats) noteError(err error, at time.Time) {
	s.LastError = err.Error()
	s.LastErrorAt = &at
}

// Processor relays queued messages to the broker. Each message is tried
// until it is published or has failed MaxRetries times, with exponential
// backoff between attempts.
type Processor struct {
	store     Store
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(store Store, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:     store,
		publisher: publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Start polls the outbox in the background until Stop is called or ctx ends.
// Starting a running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries,
	)
	return nil
}

// Stop ends polling and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Processor) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				p.logger.ErrorContext(ctx, "failed to read outbox batch", "error", err)
			}
		}
	}
}

// ProcessOnce delivers one batch of due messages. Only a failure to read the
// batch is returned; publish failures are recorded on the messages.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	now := p.now()
	batch, err := p.store.Pending(ctx, p.config.BatchSize, now)
	if err != nil {
		p.updateStats(func(s *Stats) { s.noteError(err, now) })
		return err
	}
	p.observeBatch(batch, now)

	for _, msg := range batch {
		p.deliver(ctx, msg)
	}
	return nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message) {
	logger := p.logger.With(append([]any{
		"id", msg.ID,
		"topic", msg.Topic,
		"event_id", msg.EventID,
	}, traceAttrs(msg)...)...)

	err := p.publisher.Publish(ctx, msg.Topic, msg.Payload)
	if err == nil {
		if markErr := p.store.MarkPublished(ctx, msg.ID, p.now()); markErr != nil {
			logger.ErrorContext(ctx, "failed to mark outbox message published", "error", markErr)
			return
		}
		p.updateStats(func(s *Stats) { s.PublishedCount++ })
		return
	}

	now := p.now()
	attempt := msg.RetryCount + 1
	if attempt >= p.config.MaxRetries {
		logger.WarnContext(ctx, "outbox message dead-lettered", "attempt", attempt, "error", err)
		p.updateStats(func(s *Stats) {
			s.DeadCount++
			s.noteError(err, now)
		})
		if markErr := p.store.MarkDead(ctx, msg.ID, err.Error(), now); markErr != nil {
			logger.ErrorContext(ctx, "failed to dead-letter outbox message", "error", markErr)
		}
		return
	}

	next := now.Add(p.backoff(attempt))
	logger.WarnContext(ctx, "outbox publish failed", "attempt", attempt, "next_attempt", next, "error", err)
	p.updateStats(func(s *Stats) {
		s.FailedCount++
		s.noteError(err, now)
	})
	if markErr := p.store.ScheduleRetry(ctx, msg.ID, err.Error(), next); markErr != nil {
		logger.ErrorContext(ctx, "failed to schedule outbox retry", "error", markErr)
	}
}

// backoff is the wait after the given failed attempt: the base doubled per
// earlier failure, capped at the configured maximum.
func (p *Processor) backoff(attempt int) time.Duration {
	base, ceiling := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	wait := base
	for i := 1; i < attempt && wait < ceiling; i++ {
		wait *= 2
	}
	return min(wait, ceiling)
}

// traceAttrs returns the tracing ids stored with a message as log attributes.
func traceAttrs(msg *Message) []any {
	if len(msg.Metadata) == 0 {
		return nil
	}
	var meta eventbus.EventMetadata
	if err := json.Unmarshal(msg.Metadata, &meta); err != nil {
		return nil
	}
	return []any{
		"correlation_id", meta.CorrelationID,
		"causation_id", meta.CausationID,
		"request_id", meta.RequestID,
	}
}

// GetStats returns a snapshot of the processor counters.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()

	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	stats := p.stats
	stats.IsRunning = running
	return stats
}

func (p *Processor) updateStats(fn func(*Stats)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	fn(&p.stats)
}

// observeBatch records when the outbox was last read and how far behind
// the oldest pending message is.
func (p *Processor) observeBatch(batch []*Message, now time.Time) {
	p.updateStats(func(s *Stats) {
		s.LastProcessedAt = &now
		if len(batch) == 0 {
			s.LagSeconds = 0
			s.OldestMessageAt = nil
			return
		}
		oldest := batch[0].CreatedAt
		for _, msg := range batch[1:] {
			if msg.CreatedAt.Before(oldest) {
				oldest = msg.CreatedAt
			}
		}
		s.OldestMessageAt = &oldest
		s.LagSeconds = now.Sub(oldest).Seconds()
	})
}
