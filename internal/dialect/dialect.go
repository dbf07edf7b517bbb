// Package dialect isolates the per-backend SQL differences behind one
// explicit interface. Each supported backend gets a hand-written
// implementation; there is no generic compilation layer, and a query builder
// asks the dialect only for the pieces that genuinely differ (identifier
// quoting, placeholders, ordered aggregation, temp-table DDL, row locking,
// the bind-parameter ceiling).
package dialect

import (
	"fmt"

	"stagedb/internal/schema"
)

// Dialect is the per-backend SQL surface.
type Dialect interface {
	// Name is the backend name as it appears in configuration ("sqlite",
	// "postgres").
	Name() string

	// DriverName is the database/sql driver to open.
	DriverName() string

	// DSN turns a configured URL or path into the driver's connection string,
	// including any session pragmas the backend needs.
	DSN(url string) string

	// Quote wraps an identifier in the backend's quoting characters.
	// Table names like "commit" and columns like "user" are reserved words
	// on at least one backend, so every identifier is quoted.
	Quote(ident string) string

	// ColumnType maps a portable column type to the backend's type name.
	ColumnType(t schema.ColType) string

	// AutoIncrementPK is the column spec for an auto-incremented integer
	// primary key.
	AutoIncrementPK() string

	// Rebind rewrites ?-placeholders into the backend's bind syntax.
	Rebind(query string) string

	// AggregateList is the ordered string-aggregation expression for wide
	// views. orderBy may be consumed or ignored: backends whose aggregate
	// honors input order receive pre-sorted rows from the caller.
	AggregateList(expr, orderBy string) string

	// TempTableDDL wraps a column body in the backend's temporary-table
	// creation statement. Temporary tables must be connection-scoped and
	// survive transaction boundaries.
	TempTableDDL(name, body string) string

	// CounterLock is the suffix that locks a selected counter row for
	// update, or "" when the backend serializes writers another way.
	CounterLock() string

	// MaxParams is the backend's bind-parameter ceiling per statement.
	MaxParams() int
}

// ErrUnknownBackend is wrapped by New for unrecognized backend names.
var ErrUnknownBackend = fmt.Errorf("unknown backend")

// New returns the dialect for a configured backend name.
func New(backend string) (Dialect, error) {
	switch backend {
	case "sqlite", "sqlite3", "":
		return SQLite{}, nil
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
