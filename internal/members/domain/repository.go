package domain

import (
	"context"
)

// Repository defines persistence operations for members.
type Repository interface {
	// FindByID returns an ErrNotFound-kind error when the member does not exist.
	FindByID(ctx context.Context, id int64) (*Member, error)
	// FindByEmail returns nil, nil when no member has the address.
	FindByEmail(ctx context.Context, email string) (*Member, error)
	FindAll(ctx context.Context) ([]*Member, error)
	// Save inserts a transient member or fully upserts a persisted one, replacing its goals.
	Save(ctx context.Context, member *Member) error
	Delete(ctx context.Context, id int64) error
}
