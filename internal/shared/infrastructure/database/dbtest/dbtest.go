// Package dbtest opens migrated databases for integration tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/migrations"
)

// SQLite returns a migrated SQLite connection backed by a file in t.TempDir.
func SQLite(t *testing.T) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "studio.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn), "failed to apply SQLite schema")
	return conn
}

// Postgres returns a migrated PostgreSQL connection to TEST_DATABASE_URL with
// the studio tables emptied. The test is skipped when the variable is unset.
func Postgres(t *testing.T) database.Connection {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{Driver: database.DriverPostgres, URL: dbURL})
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		t.Skipf("Failed to ping test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	_, err = conn.Exec(ctx, `TRUNCATE outbox, planned_exercises, workout_sessions, training_plans,
		availability_slots, certifications, coach_specializations, coaches, fitness_goals, members
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return conn
}

// Each runs fn against every available backend as a subtest.
func Each(t *testing.T, fn func(t *testing.T, conn database.Connection)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) { fn(t, SQLite(t)) })
	t.Run("postgres", func(t *testing.T) { fn(t, Postgres(t)) })
}
