package staging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"stagedb/internal/schema"
	"stagedb/internal/viewsql"
)

// Commit materializes the staging area into the canonical tables inside one
// physical transaction: insert the commit record, delete removed rows in
// reverse dependency order, merge dirty diff rows onto their canonical rows,
// insert added diff rows in dependency order, truncate the diff tables and
// reset the id sets. On any failure the transaction rolls back and the
// staging area is left exactly as it was, so the commit can be retried.
func (a *Area) Commit(ctx context.Context, comment string) (int64, error) {
	if a.clean {
		return 0, &UsageError{Op: "commit"}
	}
	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, &CommitError{Err: err}
	}
	commitID, err := a.runCommit(ctx, tx, comment)
	if err != nil {
		tx.Rollback()
		return 0, &CommitError{Err: err}
	}
	if err := tx.Commit(); err != nil {
		return 0, &CommitError{Err: err}
	}
	a.state.Reset()
	a.clean = true
	a.log.Info("committed staging area",
		zap.Int64("commit_id", commitID),
		zap.String("user", a.user),
	)
	return commitID, nil
}

func (a *Area) runCommit(ctx context.Context, tx querier, comment string) (int64, error) {
	commitID, err := a.insertCommitRow(ctx, tx, comment)
	if err != nil {
		return 0, err
	}

	// Removals walk the tables in reverse dependency order so member and
	// satellite rows go before the supertype rows they reference.
	all := schema.All()
	for i := len(all) - 1; i >= 0; i-- {
		t := all[i]
		if t == schema.TableCommit {
			continue
		}
		if err := a.deleteCanonical(ctx, tx, t, a.state.Removed(t)); err != nil {
			return 0, err
		}
	}

	for _, t := range all {
		if t == schema.TableCommit {
			continue
		}
		if err := a.mergeDirty(ctx, tx, t, commitID); err != nil {
			return 0, err
		}
	}

	// Adds walk in dependency order so a referenced row lands before its
	// referents.
	for _, t := range all {
		if t == schema.TableCommit {
			continue
		}
		if err := a.insertAdded(ctx, tx, t, commitID); err != nil {
			return 0, err
		}
	}

	for _, t := range schema.StagingTables() {
		q := fmt.Sprintf("DELETE FROM %s", a.d.Quote(a.DiffTable(t)))
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("truncate diff for %s: %w", t, err)
		}
	}
	return commitID, nil
}

func (a *Area) insertCommitRow(ctx context.Context, tx querier, comment string) (int64, error) {
	date := time.Now().UTC().Format(time.RFC3339)
	q := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?) RETURNING %s",
		a.d.Quote("commit"), a.d.Quote("user"), a.d.Quote("date"), a.d.Quote("comment"),
		a.d.Quote("id"))
	rows, err := tx.QueryContext(ctx, a.d.Rebind(q), a.user, date, comment)
	if err != nil {
		return 0, fmt.Errorf("insert commit row: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, fmt.Errorf("insert commit row: no id returned")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert commit row: %w", err)
	}
	return id, rows.Err()
}

func (a *Area) deleteCanonical(ctx context.Context, tx querier, t schema.Table, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	def := t.Def()
	q := fmt.Sprintf("DELETE FROM %s WHERE %s", a.d.Quote(def.Name),
		viewsql.In(a.d, a.d.Quote(def.IDColumn), ids))
	if _, err := tx.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("delete removed %s rows: %w", t, err)
	}
	return nil
}

// mergeDirty overwrites canonical rows with their diff copies. Single-key
// tables update in place so no foreign-key cascade fires; composite-key
// tables, which nothing references, are replaced wholesale because the row
// count per id may have changed.
func (a *Area) mergeDirty(ctx context.Context, tx querier, t schema.Table, commitID int64) error {
	dirty := a.state.Dirty(t)
	if len(dirty) == 0 {
		return nil
	}
	def := t.Def()
	rows, err := a.readRows(ctx, tx, t, a.DiffTable(t), dirty)
	if err != nil {
		return err
	}
	if t.HasCompositePK() {
		if err := a.deleteCanonical(ctx, tx, t, dirty); err != nil {
			return err
		}
		for _, row := range rows {
			if def.HasCommitID {
				row["commit_id"] = commitID
			}
			if err := a.insertRow(ctx, tx, t, def.Name, row); err != nil {
				return err
			}
		}
		return nil
	}
	for _, row := range rows {
		if def.HasCommitID {
			row["commit_id"] = commitID
		}
		var sets []string
		var args []any
		for _, c := range def.Columns {
			if c.Name == def.IDColumn {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = ?", a.d.Quote(c.Name)))
			args = append(args, row[c.Name])
		}
		args = append(args, row[def.IDColumn])
		q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
			a.d.Quote(def.Name), strings.Join(sets, ", "), a.d.Quote(def.IDColumn))
		if _, err := tx.ExecContext(ctx, a.d.Rebind(q), args...); err != nil {
			return fmt.Errorf("merge dirty %s row: %w", t, err)
		}
	}
	return nil
}

func (a *Area) insertAdded(ctx context.Context, tx querier, t schema.Table, commitID int64) error {
	added := a.state.Added(t)
	if len(added) == 0 {
		return nil
	}
	def := t.Def()
	rows, err := a.readRows(ctx, tx, t, a.DiffTable(t), added)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if def.HasCommitID {
			row["commit_id"] = commitID
		}
		if err := a.insertRow(ctx, tx, t, def.Name, row); err != nil {
			return err
		}
	}
	return nil
}

// Rollback discards the staging area: diff tables truncated, id sets reset,
// canonical tables untouched.
func (a *Area) Rollback(ctx context.Context) error {
	if a.clean {
		return &UsageError{Op: "rollback"}
	}
	for _, t := range schema.StagingTables() {
		q := fmt.Sprintf("DELETE FROM %s", a.d.Quote(a.DiffTable(t)))
		if _, err := a.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("staging: truncate diff for %s: %w", t, err)
		}
	}
	a.state.Reset()
	a.clean = true
	a.log.Info("rolled back staging area", zap.String("user", a.user))
	return nil
}
