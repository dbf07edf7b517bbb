package staging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stagedb/internal/schema"
)

// Update stages field overrides for existing rows. A row already in the diff
// table is mutated in place; otherwise every canonical row of the id is
// copied into the diff table with the overrides applied, which keeps
// composite-key tables whole. Ids found in neither place, and ids already
// removed, are silent no-ops; the returned slice holds the ids actually
// updated.
func (a *Area) Update(ctx context.Context, t schema.Table, items []Item) ([]int64, error) {
	def := t.Def()
	var updated []int64
	for _, item := range items {
		normalizeItem(item)
		id, ok := asID(item[def.IDColumn])
		if !ok {
			continue
		}
		if a.state.IsRemoved(t, id) {
			continue
		}
		if a.state.InDiff(t, id) {
			if err := a.updateDiffRow(ctx, t, id, item); err != nil {
				return updated, err
			}
			a.state.MarkDirty(t, id)
			updated = append(updated, id)
			continue
		}
		rows, err := a.readRows(ctx, a.conn, t, def.Name, []int64{id})
		if err != nil {
			return updated, err
		}
		if len(rows) == 0 {
			continue
		}
		for _, row := range rows {
			applyOverrides(t, row, item)
			if err := a.insertRow(ctx, a.conn, t, a.DiffTable(t), row); err != nil {
				return updated, err
			}
		}
		a.state.MarkDirty(t, id)
		updated = append(updated, id)
	}
	if len(updated) > 0 {
		a.markStaged()
		a.log.Debug("staged update", zap.Stringer("table", t), zap.Int("rows", len(updated)))
	}
	return updated, nil
}

// updateDiffRow mutates a diff row in place. On composite-key tables an item
// carrying the second key column narrows the update to that row; without it
// the override applies to every row of the id.
func (a *Area) updateDiffRow(ctx context.Context, t schema.Table, id int64, item Item) error {
	def := t.Def()
	var sets []string
	var args []any
	for _, c := range def.Columns {
		if isPKColumn(def, c.Name) {
			continue
		}
		v, ok := item[c.Name]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = ?", a.d.Quote(c.Name)))
		args = append(args, v)
	}
	if len(sets) == 0 {
		return nil
	}
	where := fmt.Sprintf("%s = ?", a.d.Quote(def.IDColumn))
	args = append(args, id)
	if t.HasCompositePK() {
		second := def.PK[1]
		if dim, ok := asID(item[second]); ok {
			where += fmt.Sprintf(" AND %s = ?", a.d.Quote(second))
			args = append(args, dim)
		}
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		a.d.Quote(a.DiffTable(t)), strings.Join(sets, ", "), where)
	if err := a.exec(ctx, q, args...); err != nil {
		return fmt.Errorf("staging: update diff row: %w", err)
	}
	return nil
}

// applyOverrides copies requested non-key fields of item onto a canonical
// row copy. On composite-key tables a row only takes the override when the
// item names its second key column value, or names none.
func applyOverrides(t schema.Table, row, item Item) {
	def := t.Def()
	if t.HasCompositePK() {
		second := def.PK[1]
		if want, ok := asID(item[second]); ok {
			have, _ := asID(row[second])
			if have != want {
				return
			}
		}
	}
	for _, c := range def.Columns {
		if isPKColumn(def, c.Name) {
			continue
		}
		if v, ok := item[c.Name]; ok {
			row[c.Name] = v
		}
	}
}

func isPKColumn(def schema.Def, name string) bool {
	for _, c := range def.PK {
		if c == name {
			return true
		}
	}
	return false
}
