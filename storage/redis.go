package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"support-bot/config"
)

// RedisStore keeps the record as a JSON string under one key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, key: cfg.Key}, nil
}

func (r *RedisStore) Get(ctx context.Context) (JoinRoleConfig, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return JoinRoleConfig{}, nil
	}
	if err != nil {
		return JoinRoleConfig{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decodeRecord(data)
}

func (r *RedisStore) Set(ctx context.Context, roleID string) error {
	data, err := encodeRecord(roleID)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
