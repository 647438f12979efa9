package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrParseConfig       = errors.New("pg: failed to parse connection config")
	ErrConnectionFailed  = errors.New("pg: failed to open database connection")
	ErrHealthcheckFailed = errors.New("pg: healthcheck failed")
	ErrMigrationsFailed  = errors.New("pg: failed to apply migrations")
)

// IsNotFound reports whether err is pgx's "no rows" result.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey reports a unique constraint violation (SQLSTATE 23505),
// e.g. a barcode or payment transaction id collision.
func IsDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return err != nil && errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports a referential integrity violation
// (SQLSTATE 23503).
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return err != nil && errors.As(err, &pgErr) && pgErr.Code == "23503"
}
