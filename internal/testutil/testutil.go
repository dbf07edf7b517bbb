// Package testutil provides store fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stagedb"
)

// OpenStore opens a fresh SQLite store under t.TempDir with the canonical
// schema created. The store closes with the test.
func OpenStore(t *testing.T, opts ...func(*stagedb.Options)) *stagedb.Store {
	t.Helper()
	o := stagedb.Options{
		Backend: "sqlite",
		URL:     filepath.Join(t.TempDir(), "store.db"),
		User:    "tester",
	}
	for _, fn := range opts {
		fn(&o)
	}
	store, err := stagedb.Open(context.Background(), o)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.CreateSchema(context.Background()))
	require.NoError(t, store.Verify(context.Background()))
	return store
}

// Strict flips the store into strict staging mode.
func Strict(o *stagedb.Options) { o.Strict = true }

// Menagerie is the committed fixture dataset most staging tests start from.
type Menagerie struct {
	DogClassID  int64
	FishClassID int64
	PlutoID     int64
	NemoID      int64
	RelClassID  int64 // dog__fish
	RelID       int64 // pluto__nemo
	BreedDefID  int64
	BreedValID  int64
}

// SeedMenagerie commits two object classes, two objects, a two-dimensional
// relationship class with one relationship, and a parameter on the dog
// class.
func SeedMenagerie(t *testing.T, store *stagedb.Store) Menagerie {
	t.Helper()
	ctx := context.Background()
	session, err := store.NewSession(ctx)
	require.NoError(t, err)
	defer session.Close()

	var m Menagerie
	classIDs, errs, err := session.AddObjectClasses(ctx,
		stagedb.ObjectClassInput{Name: "dog", Description: "canine"},
		stagedb.ObjectClassInput{Name: "fish", Description: "aquatic"},
	)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, classIDs, 2)
	m.DogClassID, m.FishClassID = classIDs[0], classIDs[1]

	objectIDs, errs, err := session.AddObjects(ctx,
		stagedb.ObjectInput{ClassID: m.DogClassID, Name: "pluto"},
		stagedb.ObjectInput{ClassID: m.FishClassID, Name: "nemo"},
	)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, objectIDs, 2)
	m.PlutoID, m.NemoID = objectIDs[0], objectIDs[1]

	relClassIDs, errs, err := session.AddRelationshipClasses(ctx, stagedb.RelationshipClassInput{
		Name:           "dog__fish",
		MemberClassIDs: []int64{m.DogClassID, m.FishClassID},
	})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, relClassIDs, 1)
	m.RelClassID = relClassIDs[0]

	relIDs, errs, err := session.AddRelationships(ctx, stagedb.RelationshipInput{
		ClassID:   m.RelClassID,
		Name:      "pluto__nemo",
		MemberIDs: []int64{m.PlutoID, m.NemoID},
	})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, relIDs, 1)
	m.RelID = relIDs[0]

	defIDs, errs, err := session.AddParameterDefinitions(ctx, stagedb.ParameterDefinitionInput{
		ClassID: m.DogClassID,
		Name:    "breed",
	})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, defIDs, 1)
	m.BreedDefID = defIDs[0]

	valIDs, errs, err := session.AddParameterValues(ctx, stagedb.ParameterValueInput{
		DefinitionID: m.BreedDefID,
		EntityID:     m.PlutoID,
		Value:        []byte(`"bloodhound"`),
		Type:         "str",
	})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Len(t, valIDs, 1)
	m.BreedValID = valIDs[0]

	_, err = session.Commit(ctx, "seed menagerie")
	require.NoError(t, err)
	return m
}
