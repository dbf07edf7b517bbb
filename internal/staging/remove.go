package staging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stagedb/internal/schema"
	"stagedb/internal/viewsql"
)

// Remove marks ids removed and propagates the removal over the dependency
// graph. Diff rows are kept for commit bookkeeping; the removed id sets hide
// every affected row from reads until commit deletes the canonical ones.
func (a *Area) Remove(ctx context.Context, t schema.Table, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	reach, err := a.cascade(ctx, t, ids)
	if err != nil {
		return err
	}
	total := 0
	for table, set := range reach {
		for id := range set {
			a.state.MarkRemoved(table, id)
		}
		total += len(set)
	}
	a.markStaged()
	a.log.Debug("staged remove",
		zap.Stringer("table", t),
		zap.Int("requested", len(ids)),
		zap.Int("reached", total),
	)
	return nil
}

// cascade walks the statically declared dependency graph breadth first and
// returns every (table, id) reached. Edge queries run against the canonical
// table and the session's diff table for the edge target, so a relationship
// staged in this session against an entity removed later in the same session
// is hidden along with it.
func (a *Area) cascade(ctx context.Context, start schema.Table, ids []int64) (map[schema.Table]IDSet, error) {
	visited := map[schema.Table]IDSet{}
	mark := func(t schema.Table, id int64) bool {
		set, ok := visited[t]
		if !ok {
			set = IDSet{}
			visited[t] = set
		}
		if set.has(id) {
			return false
		}
		set.add(id)
		return true
	}

	type frontier struct {
		t   schema.Table
		ids []int64
	}
	queue := []frontier{{start, ids}}
	for _, id := range ids {
		mark(start, id)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, edge := range schema.EdgesFrom(cur.t) {
			found, err := a.edgeTargets(ctx, edge, cur.ids)
			if err != nil {
				return nil, err
			}
			var fresh []int64
			for _, id := range found {
				if mark(edge.Dst, id) {
					fresh = append(fresh, id)
				}
			}
			if len(fresh) > 0 {
				queue = append(queue, frontier{edge.Dst, fresh})
			}
		}
	}
	return visited, nil
}

// edgeTargets resolves one cascade hop: ids of edge.Dst rows whose reference
// column matches any source id, from canonical and diff rows alike.
func (a *Area) edgeTargets(ctx context.Context, edge schema.Edge, ids []int64) ([]int64, error) {
	def := edge.Dst.Def()
	clause := viewsql.In(a.d, a.d.Quote(edge.RefColumn), ids)
	var out []int64
	for _, physical := range []string{def.Name, a.DiffTable(edge.Dst)} {
		q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s",
			a.d.Quote(def.IDColumn), a.d.Quote(physical), clause)
		found, err := a.queryIDs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("staging: cascade %s -> %s: %w", edge.Src, edge.Dst, err)
		}
		out = append(out, found...)
	}
	return out, nil
}
