package database

import "context"

// Row is a single result row. *sql.Row and pgx.Row both satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result cursor. *sql.Rows satisfies it directly; pgx rows are
// adapted by the postgres package.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Executor runs statements written with $n placeholders. Exec reports the
// number of affected rows; inserts that need the new id use RETURNING.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor bound to one database transaction.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is the pool every repository and unit of work is built on.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// ExecOne runs a statement that must change exactly one row, such as a delete
// by primary key. When nothing matched it returns notFound.
func ExecOne(ctx context.Context, exec Executor, notFound error, query string, args ...any) error {
	n, err := exec.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
