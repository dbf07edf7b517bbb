package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "boom", errors.New("x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestOutputFormatterText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"n": 1}, []string{"row one", "row two"}))
	assert.Equal(t, "row one\nrow two\n", buf.String())
}

func TestOutputFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Success(map[string]int{"n": 1}, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	buf.Reset()
	require.NoError(t, f.Error("E001", "create schema failed", "detail"))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
}

func TestErrorTextVerboseIncludesDetails(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf, Verbose: true}
	require.NoError(t, f.Error("E002", "schema verification failed", "missing tables"))
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Contains(t, buf.String(), "missing tables")
}
