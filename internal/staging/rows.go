package staging

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stagedb/internal/schema"
	"stagedb/internal/viewsql"
)

// querier is satisfied by *sql.Conn and *sql.Tx. Diff tables live on the
// session connection, so every statement here must run on one of the two.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// readRows reads full rows of t's column set from an arbitrary physical
// table (canonical or diff) restricted to an id set.
func (a *Area) readRows(ctx context.Context, q querier, t schema.Table, physical string, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	def := t.Def()
	names := t.ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = a.d.Quote(n)
	}
	sel := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(quoted, ", "), a.d.Quote(physical),
		viewsql.In(a.d, a.d.Quote(def.IDColumn), ids))
	if t.HasCompositePK() {
		sel += fmt.Sprintf(" ORDER BY %s, %s", a.d.Quote(def.PK[0]), a.d.Quote(def.PK[1]))
	}
	rows, err := q.QueryContext(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("staging: read %s rows: %w", physical, err)
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		ptrs := make([]any, len(names))
		vals := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("staging: scan %s row: %w", physical, err)
		}
		item := Item{}
		for i, n := range names {
			item[n] = vals[i]
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// insertRow writes one full-width row of t's column set into a physical
// table. Absent columns insert as NULL.
func (a *Area) insertRow(ctx context.Context, q querier, t schema.Table, physical string, item Item) error {
	names := t.ColumnNames()
	quoted := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		quoted[i] = a.d.Quote(n)
		args[i] = item[n]
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	ins := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.d.Quote(physical), strings.Join(quoted, ", "), marks)
	if _, err := q.ExecContext(ctx, a.d.Rebind(ins), args...); err != nil {
		return fmt.Errorf("staging: insert into %s: %w", physical, err)
	}
	return nil
}
