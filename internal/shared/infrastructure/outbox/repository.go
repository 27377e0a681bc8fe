package outbox

import (
	"context"
	"time"
)

// Writer queues integration messages. Append joins the transaction carried
// by ctx, so messages commit or roll back with the change they announce.
type Writer interface {
	Append(ctx context.Context, msgs ...*Message) error
}

// Store is the delivery side of the outbox used by the Processor.
type Store interface {
	// Pending returns up to limit undelivered messages due at now, oldest first.
	Pending(ctx context.Context, limit int, now time.Time) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error

	// ScheduleRetry counts a failed attempt and holds the message until nextAttempt.
	ScheduleRetry(ctx context.Context, id int64, attemptErr string, nextAttempt time.Time) error

	// MarkDead takes a message out of delivery for good.
	MarkDead(ctx context.Context, id int64, reason string, at time.Time) error

	// PurgePublished deletes messages published before cutoff.
	PurgePublished(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repository is the full outbox table.
type Repository interface {
	Writer
	Store
}
