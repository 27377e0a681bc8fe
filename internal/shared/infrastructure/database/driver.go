package database

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Driver is a supported database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// DetectDriver picks the backend for a DATABASE_URL. An empty URL selects the
// local SQLite file; anything that is neither a Postgres URL nor a SQLite
// file is rejected.
func DetectDriver(rawURL string) (Driver, error) {
	switch {
	case rawURL == "":
		return DriverSQLite, nil
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(rawURL, "sqlite://"), strings.HasPrefix(rawURL, "file:"):
		return DriverSQLite, nil
	}
	switch filepath.Ext(rawURL) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported database URL %q", redactURL(rawURL))
}

// SQLitePathFromURL returns the file a SQLite DATABASE_URL points at.
// file: URIs are passed through so their query options survive.
func SQLitePathFromURL(rawURL string) string {
	return strings.TrimPrefix(rawURL, "sqlite://")
}

// redactURL drops credentials so URLs can be logged and returned in errors.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}
