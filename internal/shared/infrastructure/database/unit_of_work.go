package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback when ctx carries no transaction.
var ErrNoTransaction = errors.New("no transaction in context")

// GenericUnitOfWork implements application.UnitOfWork over a Connection.
// Only the unit that opened a transaction may finish it; joined units
// commit and roll back as no-ops.
type GenericUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work on conn.
func NewUnitOfWork(conn Connection) *GenericUnitOfWork {
	return &GenericUnitOfWork{conn: conn}
}

// Begin joins the transaction in ctx, or opens one when there is none.
func (u *GenericUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if info, ok := TxInfoFromContext(ctx); ok {
		return WithTx(ctx, info.Tx, false), nil
	}
	return u.BeginNew(ctx)
}

// BeginNew always opens a transaction. It shadows an enclosing one in the
// returned context only.
func (u *GenericUnitOfWork) BeginNew(ctx context.Context) (context.Context, error) {
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

func (u *GenericUnitOfWork) Commit(ctx context.Context) error {
	tx, err := ownedTx(ctx)
	if tx == nil {
		return err
	}
	return tx.Commit(ctx)
}

func (u *GenericUnitOfWork) Rollback(ctx context.Context) error {
	tx, err := ownedTx(ctx)
	if tx == nil {
		return err
	}
	return tx.Rollback(ctx)
}

// ownedTx returns the transaction ctx is responsible for finishing, nil for
// a joined one, or ErrNoTransaction.
func ownedTx(ctx context.Context) (Transaction, error) {
	info, ok := TxInfoFromContext(ctx)
	switch {
	case !ok:
		return nil, ErrNoTransaction
	case !info.Owned:
		return nil, nil
	}
	return info.Tx, nil
}
