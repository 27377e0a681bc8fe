package domain

import (
	"context"
)

// Repository defines persistence operations for coaches.
type Repository interface {
	// FindByID returns an ErrNotFound-kind error when the coach does not exist.
	FindByID(ctx context.Context, id int64) (*Coach, error)
	// FindByEmail returns nil, nil when no coach has the address.
	FindByEmail(ctx context.Context, email string) (*Coach, error)
	FindAll(ctx context.Context) ([]*Coach, error)
	FindBySpecialization(ctx context.Context, spec Specialization) ([]*Coach, error)
	// Save inserts or fully upserts a coach with its specializations, certifications and slots.
	Save(ctx context.Context, coach *Coach) error
	Delete(ctx context.Context, id int64) error
}
