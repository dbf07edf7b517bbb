package staging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stagedb/internal/idalloc"
	"stagedb/internal/schema"
)

// Add validates items against the current logical view, allocates ids for
// them and writes them into the diff table. In strict mode the first
// violation aborts the whole batch before any id is allocated; otherwise
// rejected items are skipped and their errors returned alongside the ids of
// the accepted ones.
//
// Add only accepts the supertype table of an id family; satellite and member
// rows carry ids assigned elsewhere and go through Readd.
func (a *Area) Add(ctx context.Context, t schema.Table, items []Item) ([]int64, []IntegrityError, error) {
	def := t.Def()
	if def.Family.SupertypeTable() != t {
		return nil, nil, fmt.Errorf("staging: %s rows carry assigned ids, use Readd", t)
	}
	var (
		accepted []Item
		rejected []IntegrityError
		seen     = map[string]struct{}{}
	)
	for _, item := range items {
		normalizeItem(item)
		viol, err := a.checkItem(ctx, t, item, seen)
		if err != nil {
			return nil, nil, err
		}
		if viol != nil {
			if a.strict {
				return nil, nil, viol
			}
			rejected = append(rejected, *viol)
			continue
		}
		accepted = append(accepted, item)
	}
	if len(accepted) == 0 {
		return nil, rejected, nil
	}
	first, err := idalloc.Next(ctx, a.db, a.d, def.Family, a.user, len(accepted))
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, 0, len(accepted))
	for i, item := range accepted {
		id := first + int64(i)
		item[def.IDColumn] = id
		if err := a.insertRow(ctx, a.conn, t, a.DiffTable(t), item); err != nil {
			return ids, rejected, err
		}
		a.state.MarkAdded(t, id)
		ids = append(ids, id)
	}
	a.markStaged()
	a.log.Debug("staged add",
		zap.Stringer("table", t),
		zap.Int("accepted", len(ids)),
		zap.Int("rejected", len(rejected)),
	)
	return ids, rejected, nil
}

// Readd stages rows whose ids are already assigned: satellite and member
// rows sharing a supertype id, and import-style callers replaying known
// rows. No validation or allocation happens here; callers own both.
func (a *Area) Readd(ctx context.Context, t schema.Table, items []Item) ([]int64, error) {
	def := t.Def()
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		normalizeItem(item)
		id, ok := asID(item[def.IDColumn])
		if !ok {
			return ids, fmt.Errorf("staging: readd %s row without %s", t, def.IDColumn)
		}
		if err := a.insertRow(ctx, a.conn, t, a.DiffTable(t), item); err != nil {
			return ids, err
		}
		a.state.MarkAdded(t, id)
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		a.markStaged()
	}
	return ids, nil
}

// AllocateIDs reserves n ids for a family without staging anything. Callers
// composing multi-table concepts reserve the shared id first, then Readd the
// supertype and satellite rows under it.
func (a *Area) AllocateIDs(ctx context.Context, f schema.Family, n int) (int64, error) {
	return idalloc.Next(ctx, a.db, a.d, f, a.user, n)
}
