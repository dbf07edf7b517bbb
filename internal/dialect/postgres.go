package dialect

import (
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"stagedb/internal/schema"
)

// Postgres backs the store with PostgreSQL through the pgx stdlib driver.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) DSN(url string) string { return url }

func (Postgres) Quote(ident string) string { return `"` + ident + `"` }

func (Postgres) ColumnType(t schema.ColType) string {
	switch t {
	case schema.ColBigInt:
		return "BIGINT"
	case schema.ColText:
		return "TEXT"
	case schema.ColBlob:
		return "BYTEA"
	default:
		return "INTEGER"
	}
}

func (Postgres) AutoIncrementPK() string {
	return "INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY"
}

// Rebind rewrites ?-placeholders into $1..$n. Question marks never appear in
// the generated SQL outside placeholder positions, so a plain scan suffices.
func (Postgres) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (Postgres) AggregateList(expr, orderBy string) string {
	return fmt.Sprintf("string_agg(%s::text, ',' ORDER BY %s)", expr, orderBy)
}

// TempTableDDL preserves rows across transaction boundaries: a session's
// diff tables outlive every transaction until the session closes.
func (Postgres) TempTableDDL(name, body string) string {
	return fmt.Sprintf("CREATE TEMPORARY TABLE %q (\n%s\n) ON COMMIT PRESERVE ROWS", name, body)
}

func (Postgres) CounterLock() string { return " FOR UPDATE" }

func (Postgres) MaxParams() int { return 65535 }
