// Package github implements the TrendingSource port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TrendingSource = (*Client)(nil)

const (
	// TrendingWindow is how far back the creation-date bound reaches.
	TrendingWindow = 7 * 24 * time.Hour

	// TrendingPageSize is the number of repositories requested. Only the
	// first page is ever fetched.
	TrendingPageSize = 50

	// searchRateLow is the remaining search quota at which a warning is logged.
	// The search API allows 10 unauthenticated or 30 authenticated requests per minute.
	searchRateLow = 2
)

// Client implements the driven.TrendingSource port using the go-github library.
type Client struct {
	gh  *gh.Client
	now func() time.Time
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, optional PAT auth)
//
// token may be empty; search requests are then sent without an Authorization
// header. apiURL may be empty for api.github.com or point at an Enterprise
// Server REST endpoint.
func NewClient(token, apiURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)

	if token != "" {
		client = client.WithAuthToken(token)
	}

	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub API URL %q: %w", apiURL, err)
		}
	}

	return &Client{gh: client, now: time.Now}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server
// and a fixed clock. A nil now uses time.Now.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, now func() time.Time) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client.BaseURL = u

	if now == nil {
		now = time.Now
	}

	return &Client{gh: client, now: now}, nil
}

// FetchTrending retrieves the most starred repositories created after the
// date seven days before now (UTC). It makes a single request and does not
// retry or paginate.
func (c *Client) FetchTrending(ctx context.Context) (*model.SearchResult, error) {
	query := TrendingQuery(c.now())

	opts := &gh.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: TrendingPageSize,
		},
	}

	result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("searching repositories %q: %w", query, classifyError(resp, err))
	}

	logRateLimit(resp, query, len(result.Repositories))

	items := make([]model.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		items = append(items, mapRepository(r))
	}

	return &model.SearchResult{
		TotalCount: result.GetTotal(),
		Items:      items,
	}, nil
}

// TrendingQuery returns the search qualifier for repositories created after
// now minus TrendingWindow, using the UTC calendar date.
func TrendingQuery(now time.Time) string {
	since := now.UTC().Add(-TrendingWindow).Format(time.DateOnly)
	return "created:>" + since
}

// classifyError maps a go-github failure onto the port's error taxonomy:
// no response is a network failure, a non-2xx status is a RemoteError, and
// anything else on a 2xx response is a body decoding failure.
func classifyError(resp *gh.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("%w: %w", driven.ErrNetwork, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		remote := &driven.RemoteError{StatusCode: resp.StatusCode}

		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) {
			remote.Message = ghErr.Message
		}
		return remote
	}

	return fmt.Errorf("%w: %w", driven.ErrParse, err)
}

// logRateLimit logs the search API rate limit status after each call.
func logRateLimit(resp *gh.Response, query string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", "search/repositories",
		"query", query,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining <= searchRateLow {
		slog.Warn("github search rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// mapRepository converts a go-github Repository to a domain model Repository.
// Nullable fields stay nil so absence is distinguishable from an empty string.
func mapRepository(r *gh.Repository) model.Repository {
	var createdAt string
	if r.CreatedAt != nil {
		createdAt = r.GetCreatedAt().UTC().Format(time.RFC3339)
	}

	return model.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		Stars:       r.GetStargazersCount(),
		Language:    r.Language,
		HTMLURL:     r.GetHTMLURL(),
		CreatedAt:   createdAt,
	}
}
