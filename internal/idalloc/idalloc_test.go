package idalloc

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"stagedb/internal/dialect"
	"stagedb/internal/schema"
)

func openDB(t *testing.T) (*sql.DB, dialect.Dialect) {
	t.Helper()
	d, err := dialect.New("sqlite")
	require.NoError(t, err)
	db, err := sql.Open(d.DriverName(), d.DSN(filepath.Join(t.TempDir(), "alloc.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for _, stmt := range schema.CreateDDL(d) {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	for _, stmt := range schema.SeedDML(d) {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db, d
}

func TestNextSeedsFromSupertypeMax(t *testing.T) {
	ctx := context.Background()
	db, d := openDB(t)

	// Pre-existing rows the counter has never seen.
	for id, name := range map[int64]string{1: "cat", 2: "dog", 3: "fish"} {
		_, err := db.Exec(
			`INSERT INTO "entity_class" ("id", "type_id", "name", "display_order", "hidden") VALUES (?, 1, ?, 99, 0)`,
			id, name)
		require.NoError(t, err)
	}

	first, err := Next(ctx, db, d, schema.FamilyEntityClass, "tester", 2)
	require.NoError(t, err)
	require.Equal(t, int64(4), first)

	first, err = Next(ctx, db, d, schema.FamilyEntityClass, "tester", 1)
	require.NoError(t, err)
	require.Equal(t, int64(6), first)
}

func TestNextBurnsUnusedIDs(t *testing.T) {
	ctx := context.Background()
	db, d := openDB(t)

	first, err := Next(ctx, db, d, schema.FamilyEntity, "tester", 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), first)

	// Nothing was inserted with the reserved ids, yet the counter holds.
	first, err = Next(ctx, db, d, schema.FamilyEntity, "tester", 1)
	require.NoError(t, err)
	require.Equal(t, int64(6), first)
}

func TestFamiliesCountIndependently(t *testing.T) {
	ctx := context.Background()
	db, d := openDB(t)

	_, err := Next(ctx, db, d, schema.FamilyEntityClass, "tester", 10)
	require.NoError(t, err)

	first, err := Next(ctx, db, d, schema.FamilyAlternative, "tester", 1)
	require.NoError(t, err)
	// Base alternative is seeded with id 1.
	require.Equal(t, int64(2), first)
}

func TestNextRejectsNonPositiveCount(t *testing.T) {
	db, d := openDB(t)
	_, err := Next(context.Background(), db, d, schema.FamilyEntity, "tester", 0)
	require.Error(t, err)
}

func TestConcurrentAllocatorsAreDisjoint(t *testing.T) {
	ctx := context.Background()
	db, d := openDB(t)

	const (
		workers = 12
		rounds  = 10
		span    = 3
	)
	firsts := make(chan int64, workers*rounds)
	errs := make(chan error, workers*rounds)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				first, err := Next(ctx, db, d, schema.FamilyEntity, "tester", span)
				if err != nil {
					errs <- err
					return
				}
				firsts <- first
			}
		}()
	}
	wg.Wait()
	close(firsts)
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	// Every reserved id must be handed out exactly once.
	seen := map[int64]bool{}
	for first := range firsts {
		for id := first; id < first+span; id++ {
			require.False(t, seen[id], "id %d reserved twice", id)
			seen[id] = true
		}
	}
	require.Len(t, seen, workers*rounds*span)
}
