package domain

import (
	"context"
)

// Repository defines persistence operations for training plans.
type Repository interface {
	// FindByID returns an ErrNotFound-kind error when the plan does not exist.
	FindByID(ctx context.Context, id int64) (*TrainingPlan, error)
	FindAll(ctx context.Context) ([]*TrainingPlan, error)
	FindByMember(ctx context.Context, memberID int64) ([]*TrainingPlan, error)
	// Save upserts the plan and replaces its sessions, keeping ids of sessions already stored.
	Save(ctx context.Context, plan *TrainingPlan) error
	Delete(ctx context.Context, id int64) error
}
