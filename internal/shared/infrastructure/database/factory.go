package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Config selects and sizes the database connection.
type Config struct {
	// Driver overrides detection from URL.
	Driver Driver

	// URL is DATABASE_URL. Empty selects SQLite.
	URL string

	// SQLitePath is the database file. It defaults to the path in a sqlite://
	// URL, then to ~/.studio/studio.db.
	SQLitePath string

	// MaxConns is the maximum number of open connections. SQLite needs more
	// than one so an independent transaction can start while another is held.
	MaxConns int
}

// Opener creates a connection for one driver. Driver packages register
// theirs from init.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]Opener{}

// Register makes a driver available to NewConnection.
func Register(driver Driver, open Opener) {
	openers[driver] = open
}

// NewConnection opens the configured database.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" {
		detected, err := DetectDriver(cfg.URL)
		if err != nil {
			return nil, err
		}
		driver = detected
	}
	if driver == DriverSQLite && cfg.SQLitePath == "" {
		cfg.SQLitePath = DefaultSQLitePath()
		if cfg.URL != "" {
			cfg.SQLitePath = SQLitePathFromURL(cfg.URL)
		}
	}

	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("%s driver not registered", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns the local database file under the home directory.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".studio", "studio.db")
}

// EnsureDirectory creates the parent directory of a database file.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
