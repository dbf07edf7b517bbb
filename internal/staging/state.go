package staging

import (
	"sort"

	"stagedb/internal/schema"
)

// IDSet is a set of logical-table ids.
type IDSet map[int64]struct{}

func (s IDSet) add(id int64)      { s[id] = struct{}{} }
func (s IDSet) del(id int64)      { delete(s, id) }
func (s IDSet) has(id int64) bool { _, ok := s[id]; return ok }

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// State is the per-session id-set bookkeeping: added, dirty and removed ids
// per logical table. It is owned by exactly one staging area and handed by
// reference to the view compiler and the commit coordinator, never shared.
//
// Invariants: added and touched (dirty ∪ removed) are disjoint, and so are
// dirty and removed. The mark methods below maintain both.
type State struct {
	added   map[schema.Table]IDSet
	dirty   map[schema.Table]IDSet
	removed map[schema.Table]IDSet
}

// NewState returns an empty state covering every staging table.
func NewState() *State {
	s := &State{
		added:   make(map[schema.Table]IDSet),
		dirty:   make(map[schema.Table]IDSet),
		removed: make(map[schema.Table]IDSet),
	}
	for _, t := range schema.StagingTables() {
		s.added[t] = IDSet{}
		s.dirty[t] = IDSet{}
		s.removed[t] = IDSet{}
	}
	return s
}

// MarkAdded records a freshly allocated id. The id cannot be touched: it did
// not exist before this session.
func (s *State) MarkAdded(t schema.Table, id int64) { s.added[t].add(id) }

// MarkDirty records a canonical id superseded by a diff row. Added and
// removed ids are left where they are: an added row that is updated stays
// just added, and a removed id stays hidden.
func (s *State) MarkDirty(t schema.Table, id int64) {
	if s.added[t].has(id) || s.removed[t].has(id) {
		return
	}
	s.dirty[t].add(id)
}

// MarkRemoved hides an id from all reads. An added id migrates from added to
// removed so the disjointness invariants hold; a dirty id drops its dirty
// mark. Diff rows are retained either way.
func (s *State) MarkRemoved(t schema.Table, id int64) {
	s.added[t].del(id)
	s.dirty[t].del(id)
	s.removed[t].add(id)
}

// Added returns the added ids for t in ascending order.
func (s *State) Added(t schema.Table) []int64 { return s.added[t].Sorted() }

// Dirty returns the dirty ids for t in ascending order.
func (s *State) Dirty(t schema.Table) []int64 { return s.dirty[t].Sorted() }

// Removed returns the removed ids for t in ascending order.
func (s *State) Removed(t schema.Table) []int64 { return s.removed[t].Sorted() }

// Touched returns dirty ∪ removed for t in ascending order.
func (s *State) Touched(t schema.Table) []int64 {
	u := IDSet{}
	for id := range s.dirty[t] {
		u.add(id)
	}
	for id := range s.removed[t] {
		u.add(id)
	}
	return u.Sorted()
}

// IsAdded reports whether id was added in this session.
func (s *State) IsAdded(t schema.Table, id int64) bool { return s.added[t].has(id) }

// IsRemoved reports whether id is hidden in this session.
func (s *State) IsRemoved(t schema.Table, id int64) bool { return s.removed[t].has(id) }

// InDiff reports whether a diff row exists for id (added or dirty).
func (s *State) InDiff(t schema.Table, id int64) bool {
	return s.added[t].has(id) || s.dirty[t].has(id)
}

// HasPending reports whether any set is non-empty.
func (s *State) HasPending() bool {
	for _, t := range schema.StagingTables() {
		if len(s.added[t]) > 0 || len(s.dirty[t]) > 0 || len(s.removed[t]) > 0 {
			return true
		}
	}
	return false
}

// Reset empties every set. Called on commit and rollback.
func (s *State) Reset() {
	for _, t := range schema.StagingTables() {
		s.added[t] = IDSet{}
		s.dirty[t] = IDSet{}
		s.removed[t] = IDSet{}
	}
}
