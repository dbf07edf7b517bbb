package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stagedb/internal/schema"
)

func TestStateMarkTransitions(t *testing.T) {
	s := NewState()
	tbl := schema.TableEntity

	s.MarkAdded(tbl, 10)
	assert.True(t, s.IsAdded(tbl, 10))
	assert.True(t, s.InDiff(tbl, 10))
	assert.Empty(t, s.Touched(tbl), "added ids are never touched")

	// Updating an added row keeps it just added.
	s.MarkDirty(tbl, 10)
	assert.True(t, s.IsAdded(tbl, 10))
	assert.Empty(t, s.Dirty(tbl))

	s.MarkDirty(tbl, 20)
	assert.Equal(t, []int64{20}, s.Dirty(tbl))
	assert.Equal(t, []int64{20}, s.Touched(tbl))

	// Removing a dirty id drops the dirty mark.
	s.MarkRemoved(tbl, 20)
	assert.Empty(t, s.Dirty(tbl))
	assert.Equal(t, []int64{20}, s.Removed(tbl))

	// Removing an added id migrates it out of added.
	s.MarkRemoved(tbl, 10)
	assert.False(t, s.IsAdded(tbl, 10))
	assert.True(t, s.IsRemoved(tbl, 10))
	assert.Equal(t, []int64{10, 20}, s.Removed(tbl))

	// A removed id never turns dirty again.
	s.MarkDirty(tbl, 20)
	assert.Empty(t, s.Dirty(tbl))
}

func TestStateSetsStayDisjoint(t *testing.T) {
	s := NewState()
	tbl := schema.TableEntityClass

	s.MarkAdded(tbl, 1)
	s.MarkDirty(tbl, 2)
	s.MarkRemoved(tbl, 3)
	s.MarkRemoved(tbl, 1)
	s.MarkRemoved(tbl, 2)

	added := map[int64]bool{}
	for _, id := range s.Added(tbl) {
		added[id] = true
	}
	for _, id := range s.Touched(tbl) {
		assert.False(t, added[id], "id %d is both added and touched", id)
	}
	for _, id := range s.Dirty(tbl) {
		assert.False(t, s.IsRemoved(tbl, id), "id %d is both dirty and removed", id)
	}
}

func TestStateTouchedIsUnionOfDirtyAndRemoved(t *testing.T) {
	s := NewState()
	tbl := schema.TableParameterValue

	s.MarkDirty(tbl, 5)
	s.MarkDirty(tbl, 3)
	s.MarkRemoved(tbl, 4)
	assert.Equal(t, []int64{3, 4, 5}, s.Touched(tbl))
}

func TestStateHasPendingAndReset(t *testing.T) {
	s := NewState()
	assert.False(t, s.HasPending())

	s.MarkRemoved(schema.TableAlternative, 7)
	assert.True(t, s.HasPending())

	s.Reset()
	assert.False(t, s.HasPending())
	assert.Empty(t, s.Removed(schema.TableAlternative))
}

func TestIDSetSorted(t *testing.T) {
	s := IDSet{}
	for _, id := range []int64{9, 1, 5} {
		s.add(id)
	}
	assert.Equal(t, []int64{1, 5, 9}, s.Sorted())
}
