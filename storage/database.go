// Package storage persists the join-role record. Every backend holds a
// single record; Set replaces it entirely.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"support-bot/config"
)

// ErrMalformed is returned by Get when the stored record cannot be decoded.
var ErrMalformed = errors.New("join role record is malformed")

// JoinRoleConfig is the persisted record. An empty RoleID means no role is
// assigned on join.
type JoinRoleConfig struct {
	RoleID string `json:"roleId,omitempty" bson:"roleId,omitempty"`
}

// Enabled reports whether a role is configured.
func (c JoinRoleConfig) Enabled() bool { return c.RoleID != "" }

// JoinRoleStore reads and writes the join-role record.
//
// Get returns the zero config and a nil error when nothing was stored yet.
// Callers treat any error as "no role configured".
type JoinRoleStore interface {
	Get(ctx context.Context) (JoinRoleConfig, error)
	Set(ctx context.Context, roleID string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (JoinRoleStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("storage")

	var (
		store JoinRoleStore
		err   error
	)
	switch cfg.Driver {
	case "", "file":
		store, err = NewFileStore(cfg.File.Path)
	case "sqlite":
		store, err = NewSQLiteStore(ctx, cfg.SQLite.Path)
	case "mongodb":
		store, err = NewMongoStore(ctx, cfg.MongoDB)
	case "redis":
		store, err = NewRedisStore(ctx, cfg.Redis)
	case "postgres":
		store, err = NewPostgresStore(ctx, cfg.Postgres.DSN)
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s (use file, sqlite, mongodb, redis, postgres or memory)", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	logger.Info("join role store ready", zap.String("driver", cfg.Driver))
	return store, nil
}

func encodeRecord(roleID string) ([]byte, error) {
	return json.Marshal(JoinRoleConfig{RoleID: roleID})
}

func decodeRecord(data []byte) (JoinRoleConfig, error) {
	var cfg JoinRoleConfig
	if len(data) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return JoinRoleConfig{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return cfg, nil
}
