package migrations_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/studio/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/studio/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	for _, driver := range []database.Driver{database.DriverSQLite, database.DriverPostgres} {
		files, err := migrations.Files(driver)
		require.NoError(t, err)
		assert.Contains(t, files, "000001_studio.up.sql", driver.String())
	}

	_, err := migrations.Files("mysql")
	assert.Error(t, err)
}

func TestRun_SQLiteIsRepeatable(t *testing.T) {
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "studio.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	require.NoError(t, migrations.Run(ctx, conn))

	for _, table := range []string{
		"members", "fitness_goals", "coaches", "coach_specializations", "certifications",
		"availability_slots", "training_plans", "workout_sessions", "planned_exercises", "outbox",
	} {
		var count int
		err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}
