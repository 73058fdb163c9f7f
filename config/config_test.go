package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Discord.Prefix)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "joinrole.json", cfg.Storage.File.Path)
	assert.Equal(t, "ticket-", cfg.Tickets.ChannelPrefix)
	assert.Equal(t, 5*time.Second, cfg.Tickets.CloseDelay())
	assert.Equal(t, 3*time.Second, cfg.Moderation.ConfirmationTTL())
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
}

func TestLoadConfigAcceptsCommentsAndEnvToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		// storage backend
		"discord": {"token": "from-file", "prefix": "?"},
		"storage": {"driver": "sqlite", "sqlite": {"path": "x.db"}},
		"tickets": {"staff_role": "42",},
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv(TokenEnv, "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.Equal(t, "?", cfg.Discord.Prefix)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "x.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, "42", cfg.Tickets.StaffRole)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
