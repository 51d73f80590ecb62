package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are built over it so the order service can run several
// of them inside one transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithSearchPath adds a search_path connection parameter so every
// connection the pool opens resolves unqualified table names against
// schema. A session-level SET only configures the one pooled connection
// that happens to run it; connections dialed later keep the server
// default. Accepts both URL and keyword/value connection strings.
func WithSearchPath(connStr, schema string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		sep := "?"
		if strings.Contains(connStr, "?") {
			sep = "&"
		}
		return connStr + sep + "search_path=" + schema
	}
	return connStr + " search_path=" + schema
}

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure, optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
