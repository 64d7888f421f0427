package application_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

// memKV is an in-memory driven.KVStore with injectable failures.
type memKV struct {
	mu       sync.Mutex
	values   map[string]string
	getErr   error
	setErr   error
	setCalls int
}

func newMemKV() *memKV {
	return &memKV{values: map[string]string{}}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("get %q: %w", key, driven.ErrKeyNotFound)
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memKV) raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// mockSource is a driven.TrendingSource returning a fixed result or error.
type mockSource struct {
	mu     sync.Mutex
	result *model.SearchResult
	err    error
	calls  int
}

func (m *mockSource) FetchTrending(_ context.Context) (*model.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.result, m.err
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a logger writing text records into the returned buffer.
func bufferLogger(t *testing.T) (*slog.Logger, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func strPtr(s string) *string { return &s }

func makeRepo(id int64, name string, language *string) model.Repository {
	return model.Repository{
		ID:        id,
		Name:      name,
		FullName:  "octo/" + name,
		Stars:     int(1000 - id),
		Language:  language,
		HTMLURL:   "https://github.com/octo/" + name,
		CreatedAt: "2026-10-15T00:00:00Z",
	}
}
