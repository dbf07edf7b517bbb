package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SchemaError reports every canonical table the verification probe could not
// find. All tables are probed before the error is built, so one failure lists
// the full set instead of the first miss.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: missing tables: %s", strings.Join(e.Missing, ", "))
}

// Verify probes every canonical table plus the next_id counter table with a
// one-row select. It returns a *SchemaError naming all absent tables, or nil
// when the schema is complete.
func Verify(ctx context.Context, db *sql.DB, d DDLDialect) error {
	var missing []string
	for _, t := range All() {
		def := t.Def()
		if !probe(ctx, db, d, def.Name, def.IDColumn) {
			missing = append(missing, def.Name)
		}
	}
	if !probe(ctx, db, d, "next_id", "id") {
		missing = append(missing, "next_id")
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

func probe(ctx context.Context, db *sql.DB, d DDLDialect, table, col string) bool {
	q := fmt.Sprintf("SELECT %s FROM %s LIMIT 1", d.Quote(col), d.Quote(table))
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return false
	}
	rows.Close()
	return rows.Err() == nil
}
