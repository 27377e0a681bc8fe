package database

import "context"

type txKey struct{}

// TxInfo holds the transaction in context and whether it is owned by the caller.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx stores transaction info in the context. The value is only visible to
// ctx and contexts derived from it.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// WithoutTx returns a context that hides any transaction carried by ctx.
// Work detached from a request must run under it so it never shares the
// request's session.
func WithoutTx(ctx context.Context) context.Context {
	if _, ok := TxInfoFromContext(ctx); !ok {
		return ctx
	}
	return WithTx(ctx, nil, false)
}

// TxFromContext extracts transaction from the context.
// Returns nil if no transaction is present.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return nil
	}
	return info.Tx
}

// TxInfoFromContext extracts full transaction info from the context.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns the transaction if present, otherwise the connection.
// Statements run on the connection auto-commit.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// InTx runs fn inside the transaction carried by ctx, or inside a new one
// that is committed when fn succeeds. Repositories use it to write an
// aggregate and its children atomically when no unit of work is active.
func InTx(ctx context.Context, conn Connection, fn func(ctx context.Context, exec Executor) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(ctx, tx)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	txCtx := WithTx(ctx, tx, true)
	if err := fn(txCtx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
