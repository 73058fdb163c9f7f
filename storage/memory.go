package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory. It does not survive a
// restart.
type MemoryStore struct {
	mu  sync.RWMutex
	cfg JoinRoleConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(context.Context) (JoinRoleConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg, nil
}

func (m *MemoryStore) Set(_ context.Context, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = JoinRoleConfig{RoleID: roleID}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
