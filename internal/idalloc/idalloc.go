// Package idalloc hands out primary-key ranges from the shared next_id row.
//
// Allocation runs in its own short transaction on the shared pool, never on a
// session connection: the counter must advance for every other session the
// moment ids are reserved. An id handed out is burned; a later rollback of
// the staging area never returns it.
package idalloc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stagedb/internal/dialect"
	"stagedb/internal/schema"
)

// Next reserves n consecutive ids for a family and returns the first. The
// counter row is read under the dialect's lock, seeded from the supertype
// table's max id plus one, and the larger of seed and stored counter wins
// before the counter advances past the reserved range.
func Next(ctx context.Context, db *sql.DB, d dialect.Dialect, f schema.Family, user string, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("idalloc: reserve %d ids", n)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("idalloc: begin: %w", err)
	}
	defer tx.Rollback()

	col := d.Quote(f.CounterColumn())
	var stored sql.NullInt64
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = 1%s",
		col, d.Quote("next_id"), d.Quote("id"), d.CounterLock())
	row := tx.QueryRowContext(ctx, q)
	haveRow := true
	if err := row.Scan(&stored); err != nil {
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("idalloc: read counter: %w", err)
		}
		haveRow = false
	}

	super := f.SupertypeTable().Def()
	var maxID sql.NullInt64
	q = fmt.Sprintf("SELECT MAX(%s) FROM %s", d.Quote(super.IDColumn), d.Quote(super.Name))
	if err := tx.QueryRowContext(ctx, q).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("idalloc: seed from %s: %w", super.Name, err)
	}

	first := maxID.Int64 + 1
	if stored.Valid && stored.Int64 > first {
		first = stored.Int64
	}
	next := first + int64(n)
	date := time.Now().UTC().Format(time.RFC3339)

	if haveRow {
		q = fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = 1",
			d.Quote("next_id"), col, d.Quote("user"), d.Quote("date"), d.Quote("id"))
		if _, err := tx.ExecContext(ctx, d.Rebind(q), next, user, date); err != nil {
			return 0, fmt.Errorf("idalloc: advance counter: %w", err)
		}
	} else {
		if err := insertCounterRow(ctx, tx, d, f, next, user, date); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("idalloc: commit: %w", err)
	}
	return first, nil
}

func insertCounterRow(ctx context.Context, tx *sql.Tx, d dialect.Dialect, f schema.Family, next int64, user, date string) error {
	cols := []string{d.Quote("id"), d.Quote("user"), d.Quote("date"), d.Quote(f.CounterColumn())}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (1, ?, ?, ?)",
		d.Quote("next_id"), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, d.Rebind(q), user, date, next); err != nil {
		return fmt.Errorf("idalloc: create counter row: %w", err)
	}
	return nil
}
