package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the record in a bot_settings table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres: dsn not set")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS bot_settings (
		key   TEXT PRIMARY KEY,
		value JSONB NOT NULL
	)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Get(ctx context.Context) (JoinRoleConfig, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, "SELECT value FROM bot_settings WHERE key = $1", settingsKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return JoinRoleConfig{}, nil
	}
	if err != nil {
		return JoinRoleConfig{}, fmt.Errorf("postgres get: %w", err)
	}
	return decodeRecord(value)
}

func (p *PostgresStore) Set(ctx context.Context, roleID string) error {
	data, err := encodeRecord(roleID)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO bot_settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		settingsKey, data,
	)
	if err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
