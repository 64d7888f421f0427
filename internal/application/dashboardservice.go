// Package application contains use-case orchestration services.
package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// DashboardView is everything a driving adapter needs to render one
// selection of the dashboard.
type DashboardView struct {
	Selection    model.Selection
	Languages    []string
	Repos        []model.Repository // Visible list for the selected tab.
	TrendingSize int                // Size of the language-filtered trending list.
	StarredCount int
	Starred      map[int64]bool // Membership of every repo in Repos.
	Loading      bool
	Error        string
	TotalCount   int
	UpdatedAt    time.Time
}

// DashboardService composes the query cache, derived views and the starred
// set into dashboard views.
type DashboardService struct {
	source driven.TrendingSource
	cache  *QueryCache
	stars  *StarService
}

// NewDashboardService creates a DashboardService with all required dependencies.
func NewDashboardService(source driven.TrendingSource, cache *QueryCache, stars *StarService) *DashboardService {
	return &DashboardService{
		source: source,
		cache:  cache,
		stars:  stars,
	}
}

// View observes the trending query without waiting and projects it through sel.
// The trending tab shows the language-filtered list; the starred tab shows
// every starred repository from the current result set, unfiltered.
func (s *DashboardService) View(ctx context.Context, sel model.Selection) DashboardView {
	return s.project(sel, s.cache.Observe(ctx, TrendingReposKey, s.source.FetchTrending))
}

// ViewAndWait is View, but waits for an in-flight fetch when the cached data
// is missing or stale.
func (s *DashboardService) ViewAndWait(ctx context.Context, sel model.Selection) DashboardView {
	return s.project(sel, s.cache.Fetch(ctx, TrendingReposKey, s.source.FetchTrending))
}

// Refresh forces a refetch of the trending query and waits for it.
func (s *DashboardService) Refresh(ctx context.Context) QueryState {
	return s.cache.Refetch(ctx, TrendingReposKey, s.source.FetchTrending)
}

// State returns the cached trending query state without triggering a fetch.
func (s *DashboardService) State() QueryState {
	return s.cache.State(TrendingReposKey)
}

// ToggleStar flips the starred state of id and returns the new state.
func (s *DashboardService) ToggleStar(ctx context.Context, id int64) bool {
	return s.stars.ToggleStar(ctx, id)
}

// StarredIDs returns all starred IDs, including those not in the current result set.
func (s *DashboardService) StarredIDs() []int64 {
	return s.stars.IDs()
}

// IsStarred reports whether id is starred.
func (s *DashboardService) IsStarred(id int64) bool {
	return s.stars.IsStarred(id)
}

func (s *DashboardService) project(sel model.Selection, state QueryState) DashboardView {
	trending := FilterByLanguage(state.Data, sel.Language)

	repos := trending
	if sel.Tab == model.TabStarred {
		repos = FilterStarred(state.Data, s.stars.IsStarred)
	}

	starred := make(map[int64]bool, len(repos))
	for _, r := range repos {
		starred[r.ID] = s.stars.IsStarred(r.ID)
	}

	return DashboardView{
		Selection:    sel,
		Languages:    state.Languages,
		Repos:        repos,
		TrendingSize: len(trending),
		StarredCount: s.stars.Count(),
		Starred:      starred,
		Loading:      state.Loading,
		Error:        state.Error,
		TotalCount:   state.TotalCount,
		UpdatedAt:    state.UpdatedAt,
	}
}
