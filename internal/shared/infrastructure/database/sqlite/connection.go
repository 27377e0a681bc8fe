package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
)

// DefaultMaxConns bounds the pool. SQLite allows one writer at a time, but
// readers and independent transactions each need their own connection.
const DefaultMaxConns = 4

func init() {
	database.Register(database.DriverSQLite, NewConnection)
}

var positionalParam = regexp.MustCompile(`\$(\d+)`)

// rebind turns $1-style placeholders into SQLite's ?1 form so the same
// statements run on both drivers.
func rebind(query string) string {
	return positionalParam.ReplaceAllString(query, "?$1")
}

// sqlQuerier is the statement surface shared by *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executor rebinds placeholders and adapts a sqlQuerier to database.Executor.
type executor struct {
	q sqlQuerier
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := e.q.ExecContext(ctx, rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRowContext(ctx, rebind(query), args...)
}

func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.QueryContext(ctx, rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Connection is a SQLite database handle.
type Connection struct {
	executor
	db *sql.DB
}

// NewConnection opens the database file at cfg.SQLitePath.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := database.EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// journal_mode=WAL lets readers run beside the writer. busy_timeout makes
	// a connection wait 5s for a lock instead of failing immediately.
	// _txlock=immediate takes the write lock at BEGIN, so concurrent
	// transactions queue on busy_timeout instead of failing to upgrade.
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &Connection{executor: executor{db}, db: db}, nil
}

func (c *Connection) Driver() database.Driver {
	return database.DriverSQLite
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Transaction{executor: executor{tx}, tx: tx}, nil
}

// Transaction is a SQLite transaction holding the write lock.
type Transaction struct {
	executor
	tx *sql.Tx
}

func (t *Transaction) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *Transaction) Rollback(context.Context) error {
	return t.tx.Rollback()
}
