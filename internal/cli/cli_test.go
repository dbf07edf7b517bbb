package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagedb"
	"stagedb/internal/cli"
	"stagedb/internal/testutil"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := cli.NewRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// seededStorePath initializes a store on disk and commits the menagerie
// fixture into it.
func seededStorePath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	_, err := runCommand(t, "init", path)
	require.NoError(t, err)

	store, err := stagedb.Open(context.Background(), stagedb.Options{
		Backend: "sqlite",
		URL:     path,
		User:    "tester",
	})
	require.NoError(t, err)
	testutil.SeedMenagerie(t, store)
	require.NoError(t, store.Close())
	return path
}

func TestInitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	out, err := runCommand(t, "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema created")

	_, err = runCommand(t, "init", path)
	require.NoError(t, err)
}

func TestInitJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	out, err := runCommand(t, "--format", "json", "init", path)
	require.NoError(t, err)

	var resp cli.CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestClassesListsBothKinds(t *testing.T) {
	path := seededStorePath(t)
	out, err := runCommand(t, "classes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "object class")
	assert.Contains(t, out, "dog")
	assert.Contains(t, out, "relationship class")
	assert.Contains(t, out, "dog__fish")
	assert.Contains(t, out, "(dog, fish)")
}

func TestEntitiesListsObjects(t *testing.T) {
	path := seededStorePath(t)
	out, err := runCommand(t, "entities", path)
	require.NoError(t, err)
	assert.Contains(t, out, "pluto")
	assert.Contains(t, out, "nemo")
}

func TestRelationshipsListMembers(t *testing.T) {
	path := seededStorePath(t)
	out, err := runCommand(t, "relationships", path)
	require.NoError(t, err)
	assert.Contains(t, out, "pluto__nemo")
	assert.Contains(t, out, "(pluto, nemo)")
}

func TestCommitsShowCatalog(t *testing.T) {
	path := seededStorePath(t)
	out, err := runCommand(t, "commits", path)
	require.NoError(t, err)
	assert.Contains(t, out, "seed menagerie")
	assert.Contains(t, out, "tester")
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := runCommand(t, "--format", "xml", "commits", "x")
	require.ErrorContains(t, err, "invalid format")
}
