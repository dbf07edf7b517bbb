package viewsql

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagedb/internal/dialect"
	"stagedb/internal/schema"
)

// fakeOverlay is a canned Overlay for compiler tests.
type fakeOverlay struct {
	diff    map[schema.Table]string
	touched map[schema.Table][]int64
	removed map[schema.Table][]int64
}

func (f *fakeOverlay) DiffTable(t schema.Table) string   { return f.diff[t] }
func (f *fakeOverlay) TouchedIDs(t schema.Table) []int64 { return f.touched[t] }
func (f *fakeOverlay) RemovedIDs(t schema.Table) []int64 { return f.removed[t] }

// smallDialect lowers the chunk size to exercise chunking.
type smallDialect struct{ dialect.SQLite }

func (smallDialect) MaxParams() int { return 3 }

func TestEntityClassViewGolden(t *testing.T) {
	c := &Compiler{D: dialect.SQLite{}}
	g := goldie.New(t)
	g.Assert(t, "entity_class_view", []byte(c.EntityClass()+"\n"))
}

func TestOverlayLegGolden(t *testing.T) {
	c := &Compiler{D: dialect.SQLite{}, Overlay: &fakeOverlay{
		diff:    map[schema.Table]string{schema.TableEntityClass: "diff_entity_class"},
		touched: map[schema.Table][]int64{schema.TableEntityClass: {1, 2}},
		removed: map[schema.Table][]int64{schema.TableEntityClass: {2}},
	}}
	g := goldie.New(t)
	g.Assert(t, "entity_class_leg_overlay", []byte(c.Leg(schema.TableEntityClass)+"\n"))
}

func TestLegWithoutOverlayIsCanonical(t *testing.T) {
	c := &Compiler{D: dialect.SQLite{}}
	q := c.Leg(schema.TableEntity)
	assert.NotContains(t, q, "UNION ALL")
	assert.Contains(t, q, `FROM "entity"`)
}

func TestWideViewsSortBeforeAggregation(t *testing.T) {
	c := &Compiler{D: dialect.SQLite{}}

	q := c.WideRelationshipClass()
	inner := strings.Index(q, `ORDER BY rec."entity_class_id", rec."dimension"`)
	group := strings.Index(q, `GROUP BY r."id", r."name"`)
	require.GreaterOrEqual(t, inner, 0)
	require.GreaterOrEqual(t, group, 0)
	assert.Less(t, inner, group, "member rows must be sorted before aggregation")
	assert.Contains(t, q, `group_concat(r."member_class_id", ',') AS "object_class_id_list"`)

	q = c.WideRelationship()
	inner = strings.Index(q, `ORDER BY re."entity_id", re."dimension"`)
	group = strings.Index(q, `GROUP BY r."id", r."class_id", r."name"`)
	require.GreaterOrEqual(t, inner, 0)
	require.GreaterOrEqual(t, group, 0)
	assert.Less(t, inner, group)
	assert.Contains(t, q, `group_concat(r."member_id", ',') AS "object_id_list"`)
}

func TestWideViewUsesOrderedAggregateOnPostgres(t *testing.T) {
	c := &Compiler{D: dialect.Postgres{}}
	q := c.WideRelationshipClass()
	assert.Contains(t, q, `string_agg(r."member_class_id"::text, ',' ORDER BY r."dimension")`)
}

func TestParameterViewsDispatchOnType(t *testing.T) {
	c := &Compiler{D: dialect.SQLite{}}

	q := c.ParameterDefinition()
	assert.Contains(t, q, `CASE WHEN ec."type_id" = 1 THEN pd."entity_class_id" END AS "object_class_id"`)
	assert.Contains(t, q, `CASE WHEN ec."type_id" = 2 THEN pd."entity_class_id" END AS "relationship_class_id"`)

	q = c.ParameterValue()
	assert.Contains(t, q, `CASE WHEN e."type_id" = 1 THEN pv."entity_id" END AS "object_id"`)
	assert.Contains(t, q, `CASE WHEN e."type_id" = 2 THEN pv."entity_id" END AS "relationship_id"`)
	assert.Contains(t, q, `CASE WHEN ec."type_id" = 1 THEN pv."entity_class_id" END AS "object_class_id"`)
}

func TestSatelliteViewsFilterByType(t *testing.T) {
	c := &Compiler{D: dialect.SQLite{}}
	assert.Contains(t, c.ObjectClass(), `WHERE ec."type_id" = 1`)
	assert.Contains(t, c.Object(), `WHERE e."type_id" = 1`)
}

func TestMembershipChunking(t *testing.T) {
	ids := []int64{1, 2, 3, 4, 5, 6, 7}

	clause := NotIn(smallDialect{}, `"id"`, ids)
	assert.Equal(t, 3, strings.Count(clause, "NOT IN"))
	assert.Equal(t, 2, strings.Count(clause, " AND "))

	clause = In(smallDialect{}, `"id"`, ids)
	assert.Equal(t, 3, strings.Count(clause, "IN"))
	assert.Equal(t, 2, strings.Count(clause, " OR "))

	// A set under the chunk size stays unwrapped.
	assert.Equal(t, `"id" IN (9)`, In(smallDialect{}, `"id"`, []int64{9}))
}

func TestMembershipConsumesNoBindVariables(t *testing.T) {
	ids := make([]int64, 2500)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	clause := In(dialect.SQLite{}, `"id"`, ids)
	assert.NotContains(t, clause, "?")
	assert.Contains(t, clause, " OR ", "sets past the chunk size split into chunks")
}

// Membership over far more ids than the backend's bind-variable ceiling must
// still execute; results are identical to an unbounded predicate.
func TestMembershipBeyondBindCeiling(t *testing.T) {
	if testing.Short() {
		t.Skip("large id set")
	}
	d := dialect.SQLite{}
	db, err := sql.Open(d.DriverName(), d.DSN(filepath.Join(t.TempDir(), "big.db")))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE "t" ("id" INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO "t" ("id") VALUES (1), (39999)`)
	require.NoError(t, err)

	ids := make([]int64, 40000)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM "t" WHERE ` + In(d, `"id"`, ids)).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = db.QueryRow(`SELECT COUNT(*) FROM "t" WHERE ` + NotIn(d, `"id"`, ids[1:])).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
