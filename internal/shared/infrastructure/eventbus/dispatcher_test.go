package eventbus_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/studio/internal/shared/domain"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/studio/pkg/observability"
)

type sampleEvent struct {
	domain.BaseEvent
}

func newSampleEvent(routingKey string) *sampleEvent {
	return &sampleEvent{BaseEvent: domain.NewBaseEvent(1, "Sample", routingKey)}
}

type stubTx struct{ database.Transaction }

func newDispatcher() *eventbus.Dispatcher {
	return eventbus.NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_RunInRegistrationOrder(t *testing.T) {
	d := newDispatcher()
	var calls []string
	d.Register("members.member.registered", eventbus.HandlerFunc(func(ctx context.Context, e domain.DomainEvent) error {
		calls = append(calls, "first")
		return nil
	}))
	d.Register("members.member.registered", eventbus.HandlerFunc(func(ctx context.Context, e domain.DomainEvent) error {
		calls = append(calls, "second")
		return nil
	}))
	d.Register("plans.plan.completed", eventbus.HandlerFunc(func(ctx context.Context, e domain.DomainEvent) error {
		calls = append(calls, "other")
		return nil
	}))

	require.NoError(t, d.Run(context.Background(), newSampleEvent("members.member.registered")))
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 2, d.HandlerCount("members.member.registered"))
}

func TestDispatcher_RunStopsAtFirstError(t *testing.T) {
	d := newDispatcher()
	boom := errors.New("boom")
	secondRan := false
	d.Register("k", eventbus.HandlerFunc(func(context.Context, domain.DomainEvent) error { return boom }))
	d.Register("k", eventbus.HandlerFunc(func(context.Context, domain.DomainEvent) error {
		secondRan = true
		return nil
	}))

	err := d.Run(context.Background(), newSampleEvent("k"))
	assert.ErrorIs(t, err, boom)
	assert.False(t, secondRan)
}

func TestDispatcher_RunWithoutHandlers(t *testing.T) {
	assert.NoError(t, newDispatcher().Run(context.Background(), newSampleEvent("nobody.listens")))
}

func TestDispatcher_RunSharesCallerTransaction(t *testing.T) {
	d := newDispatcher()
	tx := &stubTx{}
	ctx := database.WithTx(context.Background(), tx, true)

	var seen database.Transaction
	d.Register("k", eventbus.HandlerFunc(func(ctx context.Context, e domain.DomainEvent) error {
		seen = database.TxFromContext(ctx)
		return nil
	}))

	require.NoError(t, d.Run(ctx, newSampleEvent("k")))
	assert.Same(t, tx, seen)
}

func TestDispatcher_RunInBackgroundDetachesContext(t *testing.T) {
	d := newDispatcher()
	ctx, cancel := context.WithCancel(database.WithTx(context.Background(), &stubTx{}, true))
	ctx = observability.WithCorrelationID(ctx, "corr-9")

	release := make(chan struct{})
	var (
		mu          sync.Mutex
		sawTx       bool
		ctxErr      error
		correlation string
	)
	d.Register("k", eventbus.HandlerFunc(func(ctx context.Context, e domain.DomainEvent) error {
		<-release
		mu.Lock()
		defer mu.Unlock()
		sawTx = database.TxFromContext(ctx) != nil
		ctxErr = ctx.Err()
		correlation = observability.CorrelationIDFromContext(ctx)
		return nil
	}))

	d.RunInBackground(ctx, newSampleEvent("k"))
	cancel()
	close(release)
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, sawTx, "background handler must not see the caller's transaction")
	assert.NoError(t, ctxErr, "caller cancellation must not reach the handler")
	assert.Equal(t, "corr-9", correlation)
}

func TestDispatcher_RunInBackgroundIsolatesFailures(t *testing.T) {
	d := newDispatcher()
	var (
		mu  sync.Mutex
		ran []string
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		ran = append(ran, name)
	}

	d.Register("k", eventbus.HandlerFunc(func(context.Context, domain.DomainEvent) error {
		record("failing")
		return errors.New("boom")
	}))
	d.Register("k", eventbus.HandlerFunc(func(context.Context, domain.DomainEvent) error {
		record("panicking")
		panic("handler exploded")
	}))
	d.Register("k", eventbus.HandlerFunc(func(context.Context, domain.DomainEvent) error {
		time.Sleep(10 * time.Millisecond)
		record("slow")
		return nil
	}))

	assert.NotPanics(t, func() {
		d.RunInBackground(context.Background(), newSampleEvent("k"))
	})
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"failing", "panicking", "slow"}, ran)
}

func TestDispatcher_RunInBackgroundReturnsImmediately(t *testing.T) {
	d := newDispatcher()
	release := make(chan struct{})
	d.Register("k", eventbus.HandlerFunc(func(context.Context, domain.DomainEvent) error {
		<-release
		return nil
	}))

	returned := make(chan struct{})
	go func() {
		d.RunInBackground(context.Background(), newSampleEvent("k"))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("RunInBackground blocked on its handler")
	}
	close(release)
	d.Wait()
}
