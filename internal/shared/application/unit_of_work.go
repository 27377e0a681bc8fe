package application

import "context"

// UnitOfWork provides transactional support for aggregating multiple operations.
//
// Begin joins a transaction already carried by ctx or opens one. BeginNew always
// opens an independent transaction that commits or rolls back on its own.
// Commit and Rollback only act when the scope in ctx owns its transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	BeginNew(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork executes the given function within a unit of work, joining
// any transaction already present in ctx.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	return run(txCtx, uow, fn)
}

// WithNewUnitOfWork executes the given function within an independent
// transaction. Its outcome does not depend on the enclosing transaction.
func WithNewUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.BeginNew(ctx)
	if err != nil {
		return err
	}
	return run(txCtx, uow, fn)
}

func run(txCtx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			_ = uow.Rollback(txCtx)
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}
