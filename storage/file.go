package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileStore keeps the record as a small JSON document. Writes go through a
// temp file and rename, so a crash never leaves a half-written record.
type FileStore struct {
	Path string
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
	}
	return &FileStore{Path: path}, nil
}

func (f *FileStore) Get(context.Context) (JoinRoleConfig, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return JoinRoleConfig{}, nil
	}
	if err != nil {
		return JoinRoleConfig{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return decodeRecord(bytes.TrimSpace(data))
}

func (f *FileStore) Set(_ context.Context, roleID string) error {
	data, err := encodeRecord(roleID)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(f.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	return nil
}

// Ping checks that the record's directory is still reachable.
func (f *FileStore) Ping(context.Context) error {
	_, err := os.Stat(filepath.Dir(f.Path))
	return err
}

func (f *FileStore) Close() error { return nil }
