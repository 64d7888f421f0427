// Package filestore implements the KVStore port on a single JSON file.
//
// The file holds one JSON object mapping keys to string values. Every write
// rewrites the whole file through an atomic rename, so a crash mid-write
// leaves the previous contents intact.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KVStore = (*Store)(nil)

// errCorrupt marks a backing file that exists but is not a JSON object.
var errCorrupt = errors.New("corrupt store file")

// Store is a file-backed key-value store.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// New returns a Store persisting to path. The file and its parent directory
// are created on the first Set.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under key, or driven.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadLocked()
	if err != nil {
		return "", fmt.Errorf("get %q: %w: %w", key, driven.ErrStorageRead, err)
	}

	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("get %q: %w", key, driven.ErrKeyNotFound)
	}

	return value, nil
}

// Set stores value under key, rewriting the file atomically. A corrupt file
// is moved aside to path.corrupt and replaced by a fresh one.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadLocked()
	if errors.Is(err, errCorrupt) {
		values, err = s.quarantineLocked(err)
	}
	if err != nil {
		return fmt.Errorf("set %q: %w: %w", key, driven.ErrStorageWrite, err)
	}
	values[key] = value

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("set %q: %w: marshal: %w", key, driven.ErrStorageWrite, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("set %q: %w: ensure dir: %w", key, driven.ErrStorageWrite, err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("set %q: %w: %w", key, driven.ErrStorageWrite, err)
	}

	return nil
}

// loadLocked reads the whole file. A missing file is an empty store.
func (s *Store) loadLocked() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	values := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", errCorrupt, s.path, err)
	}

	return values, nil
}

// quarantineLocked keeps a copy of the corrupt file and starts over empty.
func (s *Store) quarantineLocked(cause error) (map[string]string, error) {
	backup := s.path + ".corrupt"
	if err := os.Rename(s.path, backup); err != nil {
		return nil, fmt.Errorf("move corrupt file aside: %w", err)
	}
	s.logger.Warn("store file was corrupt, starting empty",
		"path", s.path,
		"backup", backup,
		"error", cause,
	)
	return map[string]string{}, nil
}
