package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDialect is the minimal DDL surface for catalog tests.
type fakeDialect struct{}

func (fakeDialect) Quote(ident string) string { return `"` + ident + `"` }
func (fakeDialect) ColumnType(t ColType) string {
	switch t {
	case ColText:
		return "TEXT"
	case ColBlob:
		return "BLOB"
	case ColBigInt:
		return "BIGINT"
	default:
		return "INTEGER"
	}
}
func (fakeDialect) AutoIncrementPK() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func TestDefsAreInternallyConsistent(t *testing.T) {
	for _, table := range All() {
		def := table.Def()
		require.NotEmpty(t, def.Name)
		cols := map[string]bool{}
		for _, c := range def.Columns {
			assert.False(t, cols[c.Name], "%s: duplicate column %s", def.Name, c.Name)
			cols[c.Name] = true
		}
		assert.True(t, cols[def.IDColumn], "%s: id column %s not declared", def.Name, def.IDColumn)
		require.NotEmpty(t, def.PK, def.Name)
		for _, pk := range def.PK {
			assert.True(t, cols[pk], "%s: pk column %s not declared", def.Name, pk)
		}
		if def.HasCommitID {
			assert.True(t, cols["commit_id"], def.Name)
		}
	}
}

func TestAllIsForeignKeySafe(t *testing.T) {
	// A supertype table must precede its satellites and referents.
	pos := map[Table]int{}
	for i, table := range All() {
		pos[table] = i
	}
	assert.Less(t, pos[TableEntityClass], pos[TableObjectClass])
	assert.Less(t, pos[TableEntityClass], pos[TableRelationshipClass])
	assert.Less(t, pos[TableRelationshipClass], pos[TableRelationshipEntityClass])
	assert.Less(t, pos[TableEntityClass], pos[TableEntity])
	assert.Less(t, pos[TableEntity], pos[TableObject])
	assert.Less(t, pos[TableEntity], pos[TableRelationship])
	assert.Less(t, pos[TableRelationship], pos[TableRelationshipEntity])
	assert.Less(t, pos[TableParameterDefinition], pos[TableParameterValue])
	assert.Less(t, pos[TableAlternative], pos[TableParameterValue])
	assert.Less(t, pos[TableCommit], pos[TableEntityClass])
}

func TestStagingTablesExcludeCommit(t *testing.T) {
	for _, table := range StagingTables() {
		assert.NotEqual(t, TableCommit, table)
	}
	assert.Len(t, StagingTables(), len(All())-1)
}

func TestFamiliesShareSupertypeIDs(t *testing.T) {
	assert.Equal(t, TableEntityClass, TableObjectClass.Def().Family.SupertypeTable())
	assert.Equal(t, TableEntityClass, TableRelationshipEntityClass.Def().Family.SupertypeTable())
	assert.Equal(t, TableEntity, TableRelationshipEntity.Def().Family.SupertypeTable())
	for _, f := range Families() {
		assert.NotEmpty(t, f.CounterColumn())
	}
}

func TestCreateDDLCoversEveryTable(t *testing.T) {
	stmts := CreateDDL(fakeDialect{})
	joined := strings.Join(stmts, ";\n")
	for _, table := range All() {
		assert.Contains(t, joined, `"`+table.Name()+`"`)
	}
	assert.Contains(t, joined, `"next_id"`)
	assert.Contains(t, joined, "ON DELETE CASCADE")
	assert.Contains(t, joined, `UNIQUE ("class_id", "name")`)

	seeds := SeedDML(fakeDialect{})
	require.Len(t, seeds, 1)
	assert.Contains(t, seeds[0], "'Base'")
}

func TestCascadeGraphEdges(t *testing.T) {
	// Every class-removal dependency from the propagator contract.
	wantDst := func(src Table, dst Table, ref string) {
		t.Helper()
		for _, e := range EdgesFrom(src) {
			if e.Dst == dst && e.RefColumn == ref {
				return
			}
		}
		t.Errorf("missing edge %s -(%s)-> %s", src, ref, dst)
	}
	wantDst(TableEntityClass, TableEntity, "class_id")
	wantDst(TableEntityClass, TableRelationshipEntityClass, "member_class_id")
	wantDst(TableEntityClass, TableParameterDefinition, "entity_class_id")
	wantDst(TableRelationshipEntityClass, TableEntityClass, "id")
	wantDst(TableEntity, TableRelationshipEntity, "member_id")
	wantDst(TableEntity, TableParameterValue, "entity_id")
	wantDst(TableRelationshipEntity, TableEntity, "id")
	wantDst(TableParameterDefinition, TableParameterValue, "parameter_definition_id")
	wantDst(TableAlternative, TableParameterValue, "alternative_id")

	for _, e := range Edges() {
		assert.NotEqual(t, TableCommit, e.Dst, "commit rows never cascade")
	}
}
