package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stagedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadKeepsDefaultsForAbsentFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, "url: /tmp/store.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "anon", cfg.User)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.Strict)
}

func TestLoadFullFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backend: postgres
url: postgres://localhost/stage
user: alice
strict: true
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, "alice", cfg.User)
	assert.True(t, cfg.Strict)
}

func TestLoadRejectsMissingURL(t *testing.T) {
	_, err := Load(writeConfig(t, "user: bob\n"))
	require.ErrorContains(t, err, "url is required")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "url: x\nbackend: oracle\n"))
	require.ErrorContains(t, err, "unknown backend")
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	_, err := Load(writeConfig(t, "url: x\nlog_level: chatty\n"))
	require.ErrorContains(t, err, "unknown log_level")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoggerBuildsAtConfiguredLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "info"
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
