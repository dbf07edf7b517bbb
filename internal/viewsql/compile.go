// Package viewsql compiles the virtual views of the store into SQL.
//
// Every view is assembled from per-table legs. Without an overlay a leg is a
// plain select over the canonical table; with a staging overlay it becomes
//
//	SELECT cols FROM canonical WHERE id NOT IN (touched ids)
//	UNION ALL
//	SELECT cols FROM diff
//
// so staged rows replace their canonical counterparts and removed rows
// disappear, while the canonical tables stay untouched. Id-set membership is
// rendered as integer literals rather than bind parameters, so a compiled
// view never consumes a single bind variable no matter how many ids a session
// has touched; lists are still chunked at the dialect's parameter ceiling to
// keep any one predicate bounded.
package viewsql

import (
	"fmt"
	"strconv"
	"strings"

	"stagedb/internal/dialect"
	"stagedb/internal/schema"
)

// Overlay exposes a session's staging state to the compiler.
type Overlay interface {
	// DiffTable returns the session's diff-table name for t, or "" when the
	// session has no diff table for it.
	DiffTable(t schema.Table) string

	// TouchedIDs returns the ids whose canonical rows are shadowed (updated
	// or removed) in the session, in ascending order.
	TouchedIDs(t schema.Table) []int64

	// RemovedIDs returns the ids marked removed in the session, in ascending
	// order. Diff rows for these ids are retained for commit bookkeeping but
	// must never surface in a read.
	RemovedIDs(t schema.Table) []int64
}

// Compiler builds view SQL for one dialect, optionally through an overlay.
// A nil Overlay compiles canonical-only views.
type Compiler struct {
	D       dialect.Dialect
	Overlay Overlay
}

// Leg compiles the overlay leg for a single logical table. It backs every
// view below and is exported for executors that read one table directly,
// such as the commit coordinator merging diff rows.
func (c *Compiler) Leg(t schema.Table) string {
	def := t.Def()
	cols := c.columnList("", t)
	sel := fmt.Sprintf("SELECT %s FROM %s", cols, c.D.Quote(def.Name))
	if c.Overlay == nil {
		return sel
	}
	diff := c.Overlay.DiffTable(t)
	if diff == "" {
		return sel
	}
	if touched := c.Overlay.TouchedIDs(t); len(touched) > 0 {
		sel += " WHERE " + NotIn(c.D, c.D.Quote(def.IDColumn), touched)
	}
	sel += fmt.Sprintf("\nUNION ALL\nSELECT %s FROM %s", cols, c.D.Quote(diff))
	// Removed ids keep their diff rows until commit but never surface in a
	// read, whatever their add/dirty status.
	if removed := c.Overlay.RemovedIDs(t); len(removed) > 0 {
		sel += " WHERE " + NotIn(c.D, c.D.Quote(def.IDColumn), removed)
	}
	return sel
}

// columnList renders the quoted column names of t, optionally prefixed with a
// subquery alias.
func (c *Compiler) columnList(alias string, t schema.Table) string {
	names := t.ColumnNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = c.col(alias, n)
	}
	return strings.Join(parts, ", ")
}

func (c *Compiler) col(alias, name string) string {
	if alias == "" {
		return c.D.Quote(name)
	}
	return alias + "." + c.D.Quote(name)
}

// sub wraps a compiled leg as an aliased subquery.
func sub(q, alias string) string {
	return "(\n" + indent(q) + "\n) AS " + alias
}

func indent(q string) string {
	return "\t" + strings.ReplaceAll(q, "\n", "\n\t")
}

// NotIn builds a chunked NOT IN membership test over ids. Chunks are joined
// with AND, which together exclude exactly the full set.
func NotIn(d dialect.Dialect, col string, ids []int64) string {
	return membership(d, col, ids, "NOT IN", " AND ")
}

// In builds a chunked IN membership test over ids. Chunks are joined with OR.
func In(d dialect.Dialect, col string, ids []int64) string {
	return membership(d, col, ids, "IN", " OR ")
}

// membership renders ids as integer literals. Literals keep the statement's
// bind-variable count at zero regardless of set size, which parameter
// chunking alone cannot: every chunk of one statement still counts against
// the backend's per-statement ceiling.
func membership(d dialect.Dialect, col string, ids []int64, op, join string) string {
	if len(ids) == 0 {
		panic("viewsql: membership over empty id set")
	}
	limit := d.MaxParams()
	var clauses []string
	for start := 0; start < len(ids); start += limit {
		end := start + limit
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		lits := make([]string, len(chunk))
		for i, id := range chunk {
			lits[i] = strconv.FormatInt(id, 10)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s (%s)", col, op, strings.Join(lits, ", ")))
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return "(" + strings.Join(clauses, join) + ")"
}
