package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"support-bot/config"
)

// exerciseStore checks the contract every backend shares.
func exerciseStore(t *testing.T, s JoinRoleStore) {
	t.Helper()
	ctx := context.Background()

	cfg, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())

	require.NoError(t, s.Set(ctx, "111"))
	cfg, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "111", cfg.RoleID)

	require.NoError(t, s.Set(ctx, "222"))
	cfg, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, JoinRoleConfig{RoleID: "222"}, cfg)

	require.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "joinrole.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roleId":"222"}`, string(data))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joinrole.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "333"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	cfg, err := reopened.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "333", cfg.RoleID)
}

func TestFileStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joinrole.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	cfg, err := s.Get(context.Background())
	require.ErrorIs(t, err, ErrMalformed)
	assert.False(t, cfg.Enabled())
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joinrole.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	cfg, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	cfg, err := reopened.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "222", cfg.RoleID)
}

func TestSQLiteStoreMalformed(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.db.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?)", settingsKey, "garbage")
	require.NoError(t, err)

	_, err = s.Get(ctx)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.StorageConfig{Driver: "memory"}},
		{name: "file", cfg: config.StorageConfig{Driver: "file", File: config.FileConfig{Path: filepath.Join(dir, "jr.json")}}},
		{name: "sqlite", cfg: config.StorageConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "bot.db")}}},
		{name: "mongodb without uri", cfg: config.StorageConfig{Driver: "mongodb"}, wantErr: true},
		{name: "postgres without dsn", cfg: config.StorageConfig{Driver: "postgres"}, wantErr: true},
		{name: "unknown", cfg: config.StorageConfig{Driver: "etcd"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg, zap.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			require.NoError(t, s.Ping(ctx))
		})
	}
}
