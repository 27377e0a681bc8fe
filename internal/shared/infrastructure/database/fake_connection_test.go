package database_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
)

// fakeConnection records every statement against the transaction that ran it.
type fakeConnection struct {
	mu       sync.Mutex
	nextID   atomic.Int64
	beginErr error
	txs      []*fakeTx
	autoExec []string
}

type fakeTx struct {
	id         int64
	conn       *fakeConnection
	mu         sync.Mutex
	statements []string
	committed  int
	rolledBack int
}

func (c *fakeConnection) BeginTx(_ context.Context) (database.Transaction, error) {
	if c.beginErr != nil {
		return nil, c.beginErr
	}
	tx := &fakeTx{id: c.nextID.Add(1), conn: c}
	c.mu.Lock()
	c.txs = append(c.txs, tx)
	c.mu.Unlock()
	return tx, nil
}

func (c *fakeConnection) Exec(_ context.Context, query string, _ ...any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoExec = append(c.autoExec, query)
	return 1, nil
}

func (c *fakeConnection) QueryRow(context.Context, string, ...any) database.Row {
	return fakeRow{}
}

func (c *fakeConnection) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("not supported")
}

func (c *fakeConnection) Close() error               { return nil }
func (c *fakeConnection) Ping(context.Context) error { return nil }
func (c *fakeConnection) Driver() database.Driver    { return database.DriverSQLite }

func (c *fakeConnection) transactions() []*fakeTx {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTx(nil), c.txs...)
}

func (t *fakeTx) Exec(_ context.Context, query string, _ ...any) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.committed > 0 || t.rolledBack > 0 {
		return 0, fmt.Errorf("tx %d already finished", t.id)
	}
	t.statements = append(t.statements, query)
	return 1, nil
}

func (t *fakeTx) QueryRow(context.Context, string, ...any) database.Row {
	return fakeRow{}
}

func (t *fakeTx) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("not supported")
}

func (t *fakeTx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolledBack++
	return nil
}

func (t *fakeTx) snapshot() (statements []string, committed, rolledBack int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.statements...), t.committed, t.rolledBack
}

type fakeRow struct{}

func (fakeRow) Scan(...any) error { return database.ErrNoRows }
