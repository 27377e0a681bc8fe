package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/dbtest"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLRepository_Lifecycle(t *testing.T) {
	dbtest.Each(t, func(t *testing.T, conn database.Connection) {
		ctx := context.Background()
		repo := outbox.NewSQLRepository(conn)
		now := time.Now()

		first := createTestMessage("member.registered")
		first.Metadata = []byte(`{"correlation_id":"corr-1"}`)
		second := createTestMessage("plan.completed")
		second.CreatedAt = first.CreatedAt.Add(time.Millisecond)
		require.NoError(t, repo.Append(ctx, first))
		require.NoError(t, repo.Append(ctx, second))
		assert.NotZero(t, first.ID)
		assert.Greater(t, second.ID, first.ID)

		pending, err := repo.Pending(ctx, 10, now)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, first.ID, pending[0].ID)
		assert.Equal(t, first.EventID, pending[0].EventID)
		assert.Equal(t, "member.registered", pending[0].Topic)
		assert.Equal(t, int64(1), pending[0].AggregateID)
		assert.JSONEq(t, `{"member_id":1}`, string(pending[0].Payload))
		assert.JSONEq(t, `{"correlation_id":"corr-1"}`, string(pending[0].Metadata))
		assert.WithinDuration(t, first.CreatedAt, pending[0].CreatedAt, time.Millisecond)

		require.NoError(t, repo.MarkPublished(ctx, first.ID, now))
		require.NoError(t, repo.ScheduleRetry(ctx, second.ID, "broker down", now.Add(time.Hour)))

		pending, err = repo.Pending(ctx, 10, now)
		require.NoError(t, err)
		assert.Empty(t, pending, "published and backed-off messages are not due")

		pending, err = repo.Pending(ctx, 10, now.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 1, pending[0].RetryCount)
		require.NotNil(t, pending[0].LastError)
		assert.Equal(t, "broker down", *pending[0].LastError)
		require.NotNil(t, pending[0].NextRetryAt)

		require.NoError(t, repo.MarkDead(ctx, second.ID, "publish failed", now))
		pending, err = repo.Pending(ctx, 10, now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, pending, "dead messages leave delivery")
	})
}

func TestSQLRepository_UnknownMessage(t *testing.T) {
	repo := outbox.NewSQLRepository(dbtest.SQLite(t))
	ctx := context.Background()

	assert.ErrorContains(t, repo.MarkPublished(ctx, 42, time.Now()), "outbox message 42 not found")
	assert.ErrorContains(t, repo.ScheduleRetry(ctx, 42, "x", time.Now()), "not found")
	assert.ErrorContains(t, repo.MarkDead(ctx, 42, "x", time.Now()), "not found")
}

func TestSQLRepository_AppendIsAtomic(t *testing.T) {
	conn := dbtest.SQLite(t)
	ctx := context.Background()
	repo := outbox.NewSQLRepository(conn)

	dup := createTestMessage("member.registered")
	again := createTestMessage("member.registered")
	again.EventID = dup.EventID

	err := repo.Append(ctx, createTestMessage("plan.completed"), dup, again)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))

	pending, err := repo.Pending(ctx, 10, time.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, repo.Append(ctx))
	require.NoError(t, repo.Append(ctx, createTestMessage("plan.completed")))
	pending, err = repo.Pending(ctx, 10, time.Now())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSQLRepository_AppendJoinsTransaction(t *testing.T) {
	conn := dbtest.SQLite(t)
	ctx := context.Background()
	repo := outbox.NewSQLRepository(conn)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Append(database.WithTx(ctx, tx, true), createTestMessage("member.registered")))
	require.NoError(t, tx.Rollback(ctx))

	pending, err := repo.Pending(ctx, 10, time.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSQLRepository_PurgePublished(t *testing.T) {
	conn := dbtest.SQLite(t)
	ctx := context.Background()
	repo := outbox.NewSQLRepository(conn)
	publishedAt := time.Now().Add(-48 * time.Hour)

	published := createTestMessage("member.registered")
	dead := createTestMessage("plan.completed")
	require.NoError(t, repo.Append(ctx, published, dead))
	require.NoError(t, repo.MarkPublished(ctx, published.ID, publishedAt))
	require.NoError(t, repo.MarkDead(ctx, dead.ID, "publish failed", publishedAt))

	deleted, err := repo.PurgePublished(ctx, publishedAt.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = repo.PurgePublished(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "dead messages are kept")
}

func TestSQLRepository_FeedsProcessor(t *testing.T) {
	conn := dbtest.SQLite(t)
	ctx := context.Background()
	repo := outbox.NewSQLRepository(conn)
	publisher := newMockPublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, repo.Append(ctx, createTestMessage("member.registered")))
	require.NoError(t, processor.ProcessOnce(ctx))

	assert.Equal(t, 1, publisher.PublishedCount())
	pending, err := repo.Pending(ctx, 10, time.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
