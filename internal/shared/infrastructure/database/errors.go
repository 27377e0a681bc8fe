package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRows is returned when a query expected to return a row returns none.
var ErrNoRows = errors.New("no rows in result set")

// Postgres SQLSTATE codes for constraint failures.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsNoRows returns true if the error indicates no rows were found.
// This handles both pgx.ErrNoRows and sql.ErrNoRows.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	return isConstraint(err, pgUniqueViolation, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err comes from a foreign key, for
// example deleting a row that others still reference.
func IsForeignKeyViolation(err error) bool {
	return isConstraint(err, pgForeignKeyViolation, "FOREIGN KEY constraint failed")
}

func isConstraint(err error, pgCode, sqliteText string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCode
	}
	return strings.Contains(err.Error(), sqliteText)
}
