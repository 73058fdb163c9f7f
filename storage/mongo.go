package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"support-bot/config"
)

// MongoStore keeps the record as one document in a settings collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	ID     string `bson:"_id"`
	RoleID string `bson:"roleId,omitempty"`
}

func NewMongoStore(ctx context.Context, cfg config.MongoDBConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongodb: uri not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoStore) Get(ctx context.Context) (JoinRoleConfig, error) {
	var rec mongoRecord
	err := m.coll.FindOne(ctx, bson.M{"_id": settingsKey}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return JoinRoleConfig{}, nil
	}
	if err != nil {
		return JoinRoleConfig{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return JoinRoleConfig{RoleID: rec.RoleID}, nil
}

func (m *MongoStore) Set(ctx context.Context, roleID string) error {
	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": settingsKey},
		mongoRecord{ID: settingsKey, RoleID: roleID},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb set: %w", err)
	}
	return nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
