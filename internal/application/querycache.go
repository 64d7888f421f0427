package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// QueryKey identifies one query shape in the QueryCache.
type QueryKey string

// TrendingReposKey is the key of the trending repository search.
const TrendingReposKey QueryKey = "trending-repos"

// Default cache windows.
const (
	DefaultStaleTime    = 5 * time.Minute
	DefaultGCTime       = 10 * time.Minute
	DefaultFetchTimeout = 15 * time.Second
)

// QueryFunc performs the remote fetch for a key.
type QueryFunc func(ctx context.Context) (*model.SearchResult, error)

// QueryState is a point-in-time view of a cache entry.
type QueryState struct {
	Data       []model.Repository
	TotalCount int
	Languages  []string
	Loading    bool   // true while any fetch for the key is in flight.
	Error      string // Human-readable; empty when the last applied fetch succeeded.
	Err        error
	UpdatedAt  time.Time // Time of the last applied successful fetch.
}

// cacheEntry is guarded by QueryCache.mu.
type cacheEntry struct {
	result     *model.SearchResult
	languages  []string
	updatedAt  time.Time
	err        error
	failedAt   time.Time
	lastIssued uint64
	inflight   int
	observedAt time.Time
}

// QueryCache caches query results per key with a staleness window and a
// garbage-collection window. Concurrent requests for the same key share one
// in-flight fetch. Every fetch is tagged with a sequence number and its
// outcome is applied only if no newer fetch was issued for the key since.
type QueryCache struct {
	mu      sync.Mutex
	entries map[QueryKey]*cacheEntry
	group   singleflight.Group

	staleTime    time.Duration
	gcTime       time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewQueryCache creates a QueryCache. A zero fetchTimeout leaves fetches
// bounded only by the transport.
func NewQueryCache(staleTime, gcTime, fetchTimeout time.Duration, logger *slog.Logger) *QueryCache {
	return &QueryCache{
		entries:      make(map[QueryKey]*cacheEntry),
		staleTime:    staleTime,
		gcTime:       gcTime,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// Observe records an observation of key and returns its current state
// without blocking. If the entry is missing or stale a fetch is started, or
// joined when one is already in flight; the previous data stays visible and
// Loading is reported until it resolves. A failed fetch settles the entry for
// the staleness window too, so errors are not retried on every observation.
func (c *QueryCache) Observe(ctx context.Context, key QueryKey, fn QueryFunc) QueryState {
	if c.touch(key) {
		return c.State(key)
	}

	_ = c.start(ctx, key, fn)

	state := c.State(key)
	state.Loading = true
	return state
}

// Fetch is Observe that waits for the in-flight fetch to resolve when the
// entry is not fresh. If ctx ends first the current state is returned.
func (c *QueryCache) Fetch(ctx context.Context, key QueryKey, fn QueryFunc) QueryState {
	if c.touch(key) {
		return c.State(key)
	}

	c.wait(ctx, c.start(ctx, key, fn))
	return c.State(key)
}

// Refetch issues a new fetch for key regardless of staleness and waits for
// it. Any fetch still in flight is not cancelled, but its outcome will be
// discarded because this fetch carries a newer sequence number.
func (c *QueryCache) Refetch(ctx context.Context, key QueryKey, fn QueryFunc) QueryState {
	c.touch(key)
	c.group.Forget(string(key))

	c.wait(ctx, c.start(ctx, key, fn))
	return c.State(key)
}

// State returns the current state of key without recording an observation.
// An unknown key yields empty data.
func (c *QueryCache) State(key QueryKey) QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return QueryState{Data: []model.Repository{}, Languages: []string{}}
	}

	state := QueryState{
		Data:      []model.Repository{},
		Languages: []string{},
		Loading:   e.inflight > 0,
		Err:       e.err,
		Error:     driven.Describe(e.err),
		UpdatedAt: e.updatedAt,
	}
	if e.result != nil {
		state.Data = e.result.Items
		state.TotalCount = e.result.TotalCount
		state.Languages = e.languages
	}

	return state
}

// Start runs the garbage collector until ctx is canceled. Entries with no
// fetch in flight that have not been observed for the GC window are evicted.
func (c *QueryCache) Start(ctx context.Context) {
	if c.gcTime <= 0 {
		<-ctx.Done()
		return
	}

	interval := c.gcTime / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("query cache collector stopped")
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// settledAt is when the last applied fetch resolved, successfully or not.
func (e *cacheEntry) settledAt() time.Time {
	if e.err != nil {
		return e.failedAt
	}
	return e.updatedAt
}

// touch records an observation and reports whether the entry is fresh.
func (c *QueryCache) touch(key QueryKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}

	now := c.now()
	e.observedAt = now

	settled := e.settledAt()
	return !settled.IsZero() && now.Sub(settled) < c.staleTime
}

// start starts a fetch for key or joins the one in flight. The fetch runs on
// a context detached from the caller so that one observer going away does
// not fail the others attached to the same call.
func (c *QueryCache) start(ctx context.Context, key QueryKey, fn QueryFunc) <-chan singleflight.Result {
	fetchCtx := context.WithoutCancel(ctx)

	return c.group.DoChan(string(key), func() (any, error) {
		seq := c.begin(key)

		runCtx := fetchCtx
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
			defer cancel()
		}

		start := c.now()
		result, err := fn(runCtx)
		c.finish(key, seq, result, err, c.now().Sub(start))

		return nil, nil
	})
}

func (c *QueryCache) wait(ctx context.Context, ch <-chan singleflight.Result) {
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

// begin issues the next sequence number for key and marks a fetch in flight.
func (c *QueryCache) begin(key QueryKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{observedAt: c.now()}
		c.entries[key] = e
	}

	e.lastIssued++
	e.inflight++
	return e.lastIssued
}

// finish applies a fetch outcome if seq is still the latest issued for key.
func (c *QueryCache) finish(key QueryKey, seq uint64, result *model.SearchResult, err error, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	e.inflight--

	if seq != e.lastIssued {
		c.logger.Debug("discarding superseded fetch result",
			"key", key,
			"seq", seq,
			"latest_seq", e.lastIssued,
			"error", err,
		)
		return
	}

	if err != nil {
		e.err = err
		e.failedAt = c.now()
		c.logger.Error("query fetch failed",
			"key", key,
			"seq", seq,
			"duration", took.Round(time.Millisecond),
			"error", err,
		)
		return
	}

	if result == nil {
		result = &model.SearchResult{}
	}
	if result.Items == nil {
		result.Items = []model.Repository{}
	}

	e.result = result
	e.languages = DistinctLanguages(result.Items)
	e.updatedAt = c.now()
	e.err = nil
	e.failedAt = time.Time{}

	c.logger.Info("query fetched",
		"key", key,
		"seq", seq,
		"count", len(result.Items),
		"total_count", result.TotalCount,
		"duration", took.Round(time.Millisecond),
	)
}

// sweep evicts idle entries older than the GC window.
func (c *QueryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if e.inflight > 0 || now.Sub(e.observedAt) <= c.gcTime {
			continue
		}
		delete(c.entries, key)
		c.logger.Debug("evicted idle cache entry", "key", key)
	}
}
