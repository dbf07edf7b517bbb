package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagedb/internal/schema"
)

func TestNewResolvesBackendNames(t *testing.T) {
	for _, name := range []string{"", "sqlite", "sqlite3"} {
		d, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name())
	}
	for _, name := range []string{"postgres", "postgresql", "pgx"} {
		d, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	}
	_, err := New("oracle")
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestSQLiteDSNCarriesPragmas(t *testing.T) {
	dsn := SQLite{}.DSN("/tmp/store.db")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_txlock=immediate")

	withQuery := SQLite{}.DSN("file:store.db?cache=shared")
	assert.Contains(t, withQuery, "cache=shared&_journal_mode=WAL")
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c IN (?, ?)"
	assert.Equal(t, q, SQLite{}.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)", Postgres{}.Rebind(q))
}

func TestAggregateList(t *testing.T) {
	assert.Equal(t, "group_concat(r.m, ',')", SQLite{}.AggregateList("r.m", "r.d"))
	assert.Equal(t, "string_agg(r.m::text, ',' ORDER BY r.d)", Postgres{}.AggregateList("r.m", "r.d"))
}

func TestColumnTypes(t *testing.T) {
	assert.Equal(t, "BLOB", SQLite{}.ColumnType(schema.ColBlob))
	assert.Equal(t, "BYTEA", Postgres{}.ColumnType(schema.ColBlob))
	assert.Equal(t, "INTEGER", SQLite{}.ColumnType(schema.ColInteger))
}

func TestParameterCeilings(t *testing.T) {
	assert.Equal(t, 999, SQLite{}.MaxParams())
	assert.Equal(t, 65535, Postgres{}.MaxParams())
}

func TestTempTableDDL(t *testing.T) {
	assert.Contains(t, SQLite{}.TempTableDDL("diff_x", "\t\"id\" INTEGER"), "CREATE TEMP TABLE")
	pg := Postgres{}.TempTableDDL("diff_x", "\t\"id\" INTEGER")
	assert.Contains(t, pg, "CREATE TEMPORARY TABLE")
	assert.Contains(t, pg, "ON COMMIT PRESERVE ROWS")
}

func TestCounterLock(t *testing.T) {
	assert.Empty(t, SQLite{}.CounterLock())
	assert.Equal(t, " FOR UPDATE", Postgres{}.CounterLock())
}
