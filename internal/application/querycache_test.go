package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// step is the scripted outcome of one fetch. A non-nil gate blocks the
// fetch until it is closed.
type step struct {
	result *model.SearchResult
	err    error
	gate   chan struct{}
}

// scriptedSource replays steps in order; the last step repeats.
type scriptedSource struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (s *scriptedSource) fetch(ctx context.Context) (*model.SearchResult, error) {
	s.mu.Lock()
	i := min(s.calls, len(s.steps)-1)
	s.calls++
	st := s.steps[i]
	s.mu.Unlock()

	if st.gate != nil {
		select {
		case <-st.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return st.result, st.err
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestCache(t *testing.T) (*QueryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
	c := NewQueryCache(DefaultStaleTime, DefaultGCTime, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = clock.Now
	return c, clock
}

func result(ids ...int64) *model.SearchResult {
	items := make([]model.Repository, 0, len(ids))
	for _, id := range ids {
		lang := "Go"
		if id%2 == 0 {
			lang = "Rust"
		}
		items = append(items, model.Repository{ID: id, Name: "r", Language: &lang})
	}
	return &model.SearchResult{TotalCount: len(ids) * 10, Items: items}
}

func ids(repos []model.Repository) []int64 {
	out := make([]int64, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.ID)
	}
	return out
}

func waitIdle(t *testing.T, c *QueryCache, key QueryKey) {
	t.Helper()
	require.Eventually(t, func() bool { return !c.State(key).Loading }, 2*time.Second, 5*time.Millisecond)
}

func waitCalls(t *testing.T, src *scriptedSource, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return src.callCount() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestQueryCache_UnknownKeyIsEmpty(t *testing.T) {
	c, _ := newTestCache(t)

	state := c.State(TrendingReposKey)

	assert.NotNil(t, state.Data)
	assert.Empty(t, state.Data)
	assert.False(t, state.Loading)
	assert.Empty(t, state.Error)
}

func TestQueryCache_FirstObserveTriggersOneFetch(t *testing.T) {
	c, _ := newTestCache(t)
	gate := make(chan struct{})
	src := &scriptedSource{steps: []step{{result: result(1, 2), gate: gate}}}

	state := c.Observe(context.Background(), TrendingReposKey, src.fetch)

	assert.True(t, state.Loading)
	assert.Empty(t, state.Data)

	waitCalls(t, src, 1)
	assert.True(t, c.State(TrendingReposKey).Loading)

	close(gate)
	waitIdle(t, c, TrendingReposKey)

	state = c.State(TrendingReposKey)
	assert.Equal(t, []int64{1, 2}, ids(state.Data))
	assert.Equal(t, []string{"Go", "Rust"}, state.Languages)
	assert.Equal(t, 20, state.TotalCount)
	assert.Empty(t, state.Error)
	assert.Equal(t, 1, src.callCount())
}

func TestQueryCache_ConcurrentObserversShareOneFetch(t *testing.T) {
	c, _ := newTestCache(t)
	gate := make(chan struct{})
	src := &scriptedSource{steps: []step{{result: result(1), gate: gate}}}

	var wg sync.WaitGroup
	states := make([]QueryState, 8)
	for i := range states {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states[i] = c.Fetch(context.Background(), TrendingReposKey, src.fetch)
		}()
	}

	waitCalls(t, src, 1)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, 1, src.callCount(), "observers attach to the in-flight fetch")
	for _, s := range states {
		assert.Equal(t, []int64{1}, ids(s.Data))
		assert.False(t, s.Loading)
	}
}

func TestQueryCache_FreshEntryIsServedWithoutFetching(t *testing.T) {
	c, clock := newTestCache(t)
	src := &scriptedSource{steps: []step{{result: result(1)}}}
	ctx := context.Background()

	c.Fetch(ctx, TrendingReposKey, src.fetch)
	clock.Advance(4 * time.Minute)

	state := c.Observe(ctx, TrendingReposKey, src.fetch)

	assert.False(t, state.Loading)
	assert.Equal(t, []int64{1}, ids(state.Data))
	assert.Equal(t, 1, src.callCount())
}

func TestQueryCache_StaleEntryRefetchesInBackgroundKeepingData(t *testing.T) {
	c, clock := newTestCache(t)
	gate := make(chan struct{})
	src := &scriptedSource{steps: []step{
		{result: result(1)},
		{result: result(2, 3), gate: gate},
	}}
	ctx := context.Background()

	c.Fetch(ctx, TrendingReposKey, src.fetch)
	clock.Advance(5*time.Minute + time.Second)

	state := c.Observe(ctx, TrendingReposKey, src.fetch)

	assert.True(t, state.Loading, "background refetch reports loading")
	assert.Equal(t, []int64{1}, ids(state.Data), "previous data stays visible")

	close(gate)
	waitIdle(t, c, TrendingReposKey)

	assert.Equal(t, []int64{2, 3}, ids(c.State(TrendingReposKey).Data))
	assert.Equal(t, 2, src.callCount())
}

func TestQueryCache_RefetchIgnoresStaleness(t *testing.T) {
	c, _ := newTestCache(t)
	src := &scriptedSource{steps: []step{{result: result(1)}, {result: result(4)}}}
	ctx := context.Background()

	c.Fetch(ctx, TrendingReposKey, src.fetch)
	state := c.Refetch(ctx, TrendingReposKey, src.fetch)

	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, []int64{4}, ids(state.Data))
	assert.False(t, state.Loading)
}

func TestQueryCache_RefetchWinsWhenOlderFetchResolvesLast(t *testing.T) {
	c, _ := newTestCache(t)
	older := make(chan struct{})
	newer := make(chan struct{})
	src := &scriptedSource{steps: []step{
		{result: result(1), gate: older},
		{result: result(2), gate: newer},
	}}
	ctx := context.Background()

	c.Observe(ctx, TrendingReposKey, src.fetch)
	waitCalls(t, src, 1)

	done := make(chan QueryState, 1)
	go func() { done <- c.Refetch(ctx, TrendingReposKey, src.fetch) }()
	waitCalls(t, src, 2)

	close(newer)
	state := <-done
	assert.Equal(t, []int64{2}, ids(state.Data))

	close(older)
	waitIdle(t, c, TrendingReposKey)

	assert.Equal(t, []int64{2}, ids(c.State(TrendingReposKey).Data), "superseded result is discarded")
}

func TestQueryCache_SupersededFetchResolvingFirstIsDiscarded(t *testing.T) {
	c, _ := newTestCache(t)
	older := make(chan struct{})
	newer := make(chan struct{})
	src := &scriptedSource{steps: []step{
		{result: result(1), gate: older},
		{result: result(2), gate: newer},
	}}
	ctx := context.Background()

	c.Observe(ctx, TrendingReposKey, src.fetch)
	waitCalls(t, src, 1)

	done := make(chan QueryState, 1)
	go func() { done <- c.Refetch(ctx, TrendingReposKey, src.fetch) }()
	waitCalls(t, src, 2)

	close(older)
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.entries[TrendingReposKey].inflight == 1
	}, 2*time.Second, 5*time.Millisecond)

	state := c.State(TrendingReposKey)
	assert.Empty(t, state.Data, "older result must not be applied")
	assert.True(t, state.Loading)

	close(newer)
	state = <-done
	assert.Equal(t, []int64{2}, ids(state.Data))
	assert.False(t, state.Loading)
}

// A non-success status leaves data empty and reports an error.
func TestQueryCache_FailureReportsError(t *testing.T) {
	c, _ := newTestCache(t)
	src := &scriptedSource{steps: []step{{err: &driven.RemoteError{StatusCode: 500}}}}

	state := c.Fetch(context.Background(), TrendingReposKey, src.fetch)

	assert.NotNil(t, state.Data)
	assert.Empty(t, state.Data)
	assert.False(t, state.Loading)
	assert.Equal(t, "GitHub API error: 500", state.Error)

	var remote *driven.RemoteError
	assert.ErrorAs(t, state.Err, &remote)
}

func TestQueryCache_FailureKeepsLastSuccessfulData(t *testing.T) {
	c, _ := newTestCache(t)
	src := &scriptedSource{steps: []step{
		{result: result(1, 2)},
		{err: driven.ErrNetwork},
	}}
	ctx := context.Background()

	c.Fetch(ctx, TrendingReposKey, src.fetch)
	state := c.Refetch(ctx, TrendingReposKey, src.fetch)

	assert.Equal(t, []int64{1, 2}, ids(state.Data))
	assert.NotEmpty(t, state.Error)
	assert.False(t, state.Loading)
}

func TestQueryCache_SuccessClearsPreviousError(t *testing.T) {
	c, _ := newTestCache(t)
	src := &scriptedSource{steps: []step{
		{err: driven.ErrParse},
		{result: result(5)},
	}}
	ctx := context.Background()

	first := c.Fetch(ctx, TrendingReposKey, src.fetch)
	require.NotEmpty(t, first.Error)

	second := c.Refetch(ctx, TrendingReposKey, src.fetch)

	assert.Empty(t, second.Error)
	assert.Equal(t, []int64{5}, ids(second.Data))
}

func TestQueryCache_FailureIsNotRetriedWithinStaleWindow(t *testing.T) {
	c, clock := newTestCache(t)
	src := &scriptedSource{steps: []step{
		{err: &driven.RemoteError{StatusCode: 403}},
		{result: result(7)},
	}}
	ctx := context.Background()

	c.Fetch(ctx, TrendingReposKey, src.fetch)

	for range 5 {
		clock.Advance(time.Second)
		state := c.Observe(ctx, TrendingReposKey, src.fetch)
		assert.False(t, state.Loading)
		assert.Equal(t, "GitHub API error: 403", state.Error)
		assert.Empty(t, state.Data)
	}
	assert.Equal(t, 1, src.callCount())

	clock.Advance(DefaultStaleTime)
	state := c.Fetch(ctx, TrendingReposKey, src.fetch)

	assert.Equal(t, 2, src.callCount(), "the failure settles only for the staleness window")
	assert.Equal(t, []int64{7}, ids(state.Data))
	assert.Empty(t, state.Error)
}

func TestQueryCache_FetchTimeout(t *testing.T) {
	c, _ := newTestCache(t)
	c.fetchTimeout = 20 * time.Millisecond
	src := &scriptedSource{steps: []step{{result: result(1), gate: make(chan struct{})}}}

	state := c.Fetch(context.Background(), TrendingReposKey, src.fetch)

	assert.False(t, state.Loading)
	assert.ErrorIs(t, state.Err, context.DeadlineExceeded)
	assert.Equal(t, "Timed out waiting for GitHub.", state.Error)
}

func TestQueryCache_CallerCancellationDoesNotCancelFetch(t *testing.T) {
	c, _ := newTestCache(t)
	gate := make(chan struct{})
	src := &scriptedSource{steps: []step{{result: result(9), gate: gate}}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for src.callCount() < 1 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	state := c.Fetch(ctx, TrendingReposKey, src.fetch)
	assert.True(t, state.Loading, "caller gave up before the fetch resolved")

	close(gate)
	waitIdle(t, c, TrendingReposKey)

	assert.Equal(t, []int64{9}, ids(c.State(TrendingReposKey).Data))
}

func TestQueryCache_NilItemsBecomeEmptySlice(t *testing.T) {
	c, _ := newTestCache(t)
	src := &scriptedSource{steps: []step{{result: &model.SearchResult{TotalCount: 0}}}}

	state := c.Fetch(context.Background(), TrendingReposKey, src.fetch)

	assert.NotNil(t, state.Data)
	assert.Empty(t, state.Data)
	assert.Empty(t, state.Languages)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestQueryCache_KeysAreIndependent(t *testing.T) {
	c, _ := newTestCache(t)
	a := &scriptedSource{steps: []step{{result: result(1)}}}
	b := &scriptedSource{steps: []step{{result: result(2)}}}
	ctx := context.Background()

	c.Fetch(ctx, "a", a.fetch)
	c.Fetch(ctx, "b", b.fetch)

	assert.Equal(t, []int64{1}, ids(c.State("a").Data))
	assert.Equal(t, []int64{2}, ids(c.State("b").Data))
}

func TestQueryCache_SweepEvictsIdleEntries(t *testing.T) {
	c, clock := newTestCache(t)
	src := &scriptedSource{steps: []step{{result: result(1)}}}

	c.Fetch(context.Background(), TrendingReposKey, src.fetch)

	clock.Advance(9 * time.Minute)
	c.sweep()
	assert.Equal(t, []int64{1}, ids(c.State(TrendingReposKey).Data), "within the GC window")

	clock.Advance(2 * time.Minute)
	c.sweep()
	assert.Empty(t, c.State(TrendingReposKey).Data)

	c.mu.Lock()
	_, ok := c.entries[TrendingReposKey]
	c.mu.Unlock()
	assert.False(t, ok)
}

func TestQueryCache_SweepKeepsEntriesWithFetchInFlight(t *testing.T) {
	c, clock := newTestCache(t)
	gate := make(chan struct{})
	src := &scriptedSource{steps: []step{{result: result(1), gate: gate}}}

	c.Observe(context.Background(), TrendingReposKey, src.fetch)
	waitCalls(t, src, 1)

	clock.Advance(time.Hour)
	c.sweep()

	close(gate)
	waitIdle(t, c, TrendingReposKey)
	assert.Equal(t, []int64{1}, ids(c.State(TrendingReposKey).Data))
}

func TestQueryCache_StartStopsOnCancel(t *testing.T) {
	c, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
