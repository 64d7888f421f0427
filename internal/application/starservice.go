package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// StarredReposKey is the storage key holding the starred set as a JSON array.
const StarredReposKey = "github-client-starred-repos"

// StarService holds the user's starred repository IDs in memory and mirrors
// every change to a KVStore. Storage failures are logged and never returned:
// callers always see the in-memory set.
type StarService struct {
	mu      sync.Mutex
	starred map[int64]struct{}
	store   driven.KVStore
	logger  *slog.Logger
}

// NewStarService creates a StarService and hydrates it from store. A missing
// key yields an empty set; unreadable or malformed values are logged and also
// yield an empty set.
func NewStarService(ctx context.Context, store driven.KVStore, logger *slog.Logger) *StarService {
	s := &StarService{
		starred: make(map[int64]struct{}),
		store:   store,
		logger:  logger,
	}

	ids, err := s.load(ctx)
	switch {
	case errors.Is(err, driven.ErrKeyNotFound):
		s.logger.Debug("no starred repositories stored", "key", StarredReposKey)
	case err != nil:
		s.logger.Error("failed to load starred repositories, starting empty",
			"key", StarredReposKey,
			"error", err,
		)
	default:
		for _, id := range ids {
			s.starred[id] = struct{}{}
		}
		s.logger.Debug("starred repositories loaded", "count", len(s.starred))
	}

	return s
}

// IsStarred reports whether id is in the starred set.
func (s *StarService) IsStarred(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.starred[id]
	return ok
}

// ToggleStar removes id if present and inserts it otherwise, then persists
// the full set. It returns the new membership of id. The in-memory change
// stands even if persisting fails.
func (s *StarService) ToggleStar(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, was := s.starred[id]
	if was {
		delete(s.starred, id)
	} else {
		s.starred[id] = struct{}{}
	}

	if err := s.saveLocked(ctx); err != nil {
		s.logger.Error("failed to persist starred repositories",
			"key", StarredReposKey,
			"repo_id", id,
			"error", err,
		)
	}

	return !was
}

// Count returns the number of starred repositories.
func (s *StarService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.starred)
}

// IDs returns the starred IDs in ascending order.
func (s *StarService) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *StarService) load(ctx context.Context) ([]int64, error) {
	raw, err := s.store.Get(ctx, StarredReposKey)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrStorageParse, err)
	}
	return ids, nil
}

func (s *StarService) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.sortedLocked())
	if err != nil {
		return fmt.Errorf("encode starred set: %w", err)
	}
	return s.store.Set(ctx, StarredReposKey, string(data))
}

func (s *StarService) sortedLocked() []int64 {
	ids := make([]int64, 0, len(s.starred))
	for id := range s.starred {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
