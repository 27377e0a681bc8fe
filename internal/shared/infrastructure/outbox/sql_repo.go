package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const insertMessage = `
	INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
`

const selectMessages = `
	SELECT id, CAST(event_id AS TEXT), aggregate_type, aggregate_id, event_type, routing_key,
	       CAST(payload AS TEXT), CAST(metadata AS TEXT), CAST(created_at AS TEXT),
	       CAST(published_at AS TEXT), CAST(next_retry_at AS TEXT), retry_count,
	       last_error, CAST(dead_lettered_at AS TEXT), dead_letter_reason
	FROM outbox
`

// SQLRepository implements Repository on any database.Connection.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a new outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

// Append inserts msgs and fills in their ids. Several messages are written
// in one transaction when ctx does not carry one already.
func (r *SQLRepository) Append(ctx context.Context, msgs ...*Message) error {
	switch len(msgs) {
	case 0:
		return nil
	case 1:
		return r.insert(ctx, database.ExecutorFromContext(ctx, r.conn), msgs[0])
	}
	return database.InTx(ctx, r.conn, func(ctx context.Context, exec database.Executor) error {
		for _, msg := range msgs {
			if err := r.insert(ctx, exec, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	var metadata *string
	if len(msg.Metadata) > 0 {
		s := string(msg.Metadata)
		metadata = &s
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	err := exec.QueryRow(ctx, insertMessage,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.Topic,
		string(msg.Payload),
		metadata,
		database.FormatTimestamp(msg.CreatedAt),
		database.FormatNullableTimestamp(msg.NextRetryAt),
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to queue %s message for event %s: %w", msg.Topic, msg.EventID, err)
	}
	return nil
}

// Pending returns due messages that are neither published nor dead.
func (r *SQLRepository) Pending(ctx context.Context, limit int, now time.Time) ([]*Message, error) {
	query := selectMessages + `
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY created_at, id
		LIMIT $2
	`
	return r.query(ctx, query, database.FormatTimestamp(now), limit)
}

// MarkPublished records delivery of a message.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, `UPDATE outbox SET published_at = $2 WHERE id = $1`, database.FormatTimestamp(at))
}

// ScheduleRetry counts a failed attempt and sets the next attempt time.
func (r *SQLRepository) ScheduleRetry(ctx context.Context, id int64, attemptErr string, nextAttempt time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = $2,
			next_retry_at = $3
		WHERE id = $1
	`
	return r.update(ctx, id, query, attemptErr, database.FormatTimestamp(nextAttempt))
}

// MarkDead dead-letters a message. Its last error is kept alongside the reason.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = $3,
			dead_lettered_at = $2,
			dead_letter_reason = $3
		WHERE id = $1
	`
	return r.update(ctx, id, query, database.FormatTimestamp(at), reason)
}

// PurgePublished deletes messages published before cutoff. Dead messages
// are kept for inspection.
func (r *SQLRepository) PurgePublished(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`
	n, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query, database.FormatTimestamp(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) update(ctx context.Context, id int64, query string, args ...any) error {
	notFound := fmt.Errorf("outbox message %d not found", id)
	return database.ExecOne(ctx, database.ExecutorFromContext(ctx, r.conn), notFound, query, append([]any{id}, args...)...)
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg            Message
		eventID        string
		payload        string
		metadata       *string
		createdAt      string
		publishedAt    *string
		nextRetryAt    *string
		deadLetteredAt *string
	)
	if err := row.Scan(
		&msg.ID,
		&eventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.EventType,
		&msg.Topic,
		&payload,
		&metadata,
		&createdAt,
		&publishedAt,
		&nextRetryAt,
		&msg.RetryCount,
		&msg.LastError,
		&deadLetteredAt,
		&msg.DeadLetterReason,
	); err != nil {
		return nil, fmt.Errorf("failed to scan outbox message: %w", err)
	}

	var err error
	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", eventID, err)
	}
	msg.Payload = []byte(payload)
	if metadata != nil {
		msg.Metadata = []byte(*metadata)
	}
	if msg.CreatedAt, err = database.ParseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if msg.PublishedAt, err = database.ParseNullableTimestamp(publishedAt); err != nil {
		return nil, err
	}
	if msg.NextRetryAt, err = database.ParseNullableTimestamp(nextRetryAt); err != nil {
		return nil, err
	}
	if msg.DeadLetteredAt, err = database.ParseNullableTimestamp(deadLetteredAt); err != nil {
		return nil, err
	}
	return &msg, nil
}
