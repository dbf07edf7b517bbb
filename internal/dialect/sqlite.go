package dialect

import (
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"stagedb/internal/schema"
)

// SQLite is the default backend.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite3" }

// DSN appends the session pragmas: WAL keeps readers unblocked while a
// session commits, busy_timeout absorbs short writer contention between
// sessions, foreign keys are enforced from the start, and transactions begin
// immediate so a read-then-write transaction (the id counter bump) queues on
// the write lock instead of failing with a busy snapshot.
func (SQLite) DSN(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
}

func (SQLite) Quote(ident string) string { return `"` + ident + `"` }

func (SQLite) ColumnType(t schema.ColType) string {
	switch t {
	case schema.ColBigInt:
		return "BIGINT"
	case schema.ColText:
		return "TEXT"
	case schema.ColBlob:
		return "BLOB"
	default:
		return "INTEGER"
	}
}

func (SQLite) AutoIncrementPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (SQLite) Rebind(query string) string { return query }

// AggregateList ignores orderBy: SQLite's group_concat concatenates in input
// order, so wide views feed it from a subquery sorted on (id, dimension).
func (SQLite) AggregateList(expr, orderBy string) string {
	return fmt.Sprintf("group_concat(%s, ',')", expr)
}

func (SQLite) TempTableDDL(name, body string) string {
	return fmt.Sprintf("CREATE TEMP TABLE %q (\n%s\n)", name, body)
}

// CounterLock is empty: transactions begin immediate (see DSN), so the write
// lock already serializes counter updates.
func (SQLite) CounterLock() string { return "" }

// MaxParams is SQLITE_MAX_VARIABLE_NUMBER's historical default. Newer
// builds allow more, but the floor is what chunking must respect.
func (SQLite) MaxParams() int { return 999 }
