package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ghAdapter "github.com/ericfisherdev/trendpanel/internal/adapter/driven/github"
	"github.com/ericfisherdev/trendpanel/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is the clock used by every test client.
var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, token string) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(
		server.Client(),
		server.URL+"/",
		token,
		func() time.Time { return fixedNow },
	)
	require.NoError(t, err)

	return client, server
}

// repoJSON is a helper struct for building GitHub search API items.
type repoJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	Stars       int     `json:"stargazers_count"`
	Language    *string `json:"language"`
	HTMLURL     string  `json:"html_url"`
	CreatedAt   string  `json:"created_at"`
}

type searchJSON struct {
	TotalCount int        `json:"total_count"`
	Items      []repoJSON `json:"items"`
}

func strPtr(s string) *string { return &s }

func TestFetchTrending_MapsItems(t *testing.T) {
	body := searchJSON{
		TotalCount: 1234,
		Items: []repoJSON{
			{
				ID:          1,
				Name:        "alpha",
				FullName:    "octo/alpha",
				Description: strPtr("fast things"),
				Stars:       4200,
				Language:    strPtr("TypeScript"),
				HTMLURL:     "https://github.com/octo/alpha",
				CreatedAt:   "2026-10-14T10:00:00Z",
			},
			{
				ID:        2,
				Name:      "beta",
				FullName:  "octo/beta",
				Stars:     17,
				HTMLURL:   "https://github.com/octo/beta",
				CreatedAt: "2026-10-15T11:12:13Z",
			},
		},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})

	client, _ := newTestClient(t, handler, "")
	result, err := client.FetchTrending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1234, result.TotalCount)
	require.Len(t, result.Items, 2)

	first := result.Items[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "alpha", first.Name)
	assert.Equal(t, "octo/alpha", first.FullName)
	require.NotNil(t, first.Description)
	assert.Equal(t, "fast things", *first.Description)
	assert.Equal(t, 4200, first.Stars)
	require.NotNil(t, first.Language)
	assert.Equal(t, "TypeScript", *first.Language)
	assert.Equal(t, "https://github.com/octo/alpha", first.HTMLURL)
	assert.Equal(t, "2026-10-14T10:00:00Z", first.CreatedAt)

	second := result.Items[1]
	assert.Nil(t, second.Description, "null description must stay absent")
	assert.Nil(t, second.Language, "null language must stay absent")
}

func TestFetchTrending_RequestShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotAuth string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{
			"q":        r.URL.Query().Get("q"),
			"sort":     r.URL.Query().Get("sort"),
			"order":    r.URL.Query().Get("order"),
			"per_page": r.URL.Query().Get("per_page"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_count":0,"items":[]}`))
	})

	client, _ := newTestClient(t, handler, "")
	result, err := client.FetchTrending(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)

	assert.Equal(t, "/search/repositories", gotPath)
	assert.Equal(t, "created:>2026-10-12", gotQuery["q"])
	assert.Equal(t, "stars", gotQuery["sort"])
	assert.Equal(t, "desc", gotQuery["order"])
	assert.Equal(t, "50", gotQuery["per_page"])
	assert.Empty(t, gotAuth, "no auth header without a token")
}

func TestFetchTrending_SendsTokenWhenConfigured(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_count":0,"items":[]}`))
	})

	client, _ := newTestClient(t, handler, "ghp_secret")
	_, err := client.FetchTrending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_secret", gotAuth)
}

func TestFetchTrending_ServerErrorIsRemoteError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Server Error"}`))
	})

	client, _ := newTestClient(t, handler, "")
	result, err := client.FetchTrending(context.Background())

	require.Error(t, err)
	assert.Nil(t, result, "no partial results on failure")

	var remote *driven.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.Equal(t, "GitHub API error: 500", driven.Describe(err))
}

func TestFetchTrending_UnprocessableIsRemoteError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Validation Failed"}`))
	})

	client, _ := newTestClient(t, handler, "")
	_, err := client.FetchTrending(context.Background())

	var remote *driven.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnprocessableEntity, remote.StatusCode)
	assert.Equal(t, "Validation Failed", remote.Message)
}

func TestFetchTrending_MalformedBodyIsParseError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`this is not json`))
	})

	client, _ := newTestClient(t, handler, "")
	result, err := client.FetchTrending(context.Background())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, driven.ErrParse)
	assert.NotErrorIs(t, err, driven.ErrNetwork)
}

func TestFetchTrending_NoResponseIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL + "/"
	httpClient := server.Client()
	server.Close()

	client, err := ghAdapter.NewClientWithHTTPClient(httpClient, baseURL, "", nil)
	require.NoError(t, err)

	result, err := client.FetchTrending(context.Background())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, driven.ErrNetwork)
}

func TestFetchTrending_DeadlineIsReportedAsTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(300 * time.Millisecond):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"total_count":0,"items":[]}`))
		}
	}), "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := client.FetchTrending(ctx)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Timed out waiting for GitHub.", driven.Describe(err))
}

func TestTrendingQuery_UsesUTCCalendarDate(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{
			name: "utc midday",
			now:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
			want: "created:>2026-10-12",
		},
		{
			name: "offset zone crosses midnight",
			now:  time.Date(2026, 10, 19, 1, 0, 0, 0, time.FixedZone("UTC+5", 5*60*60)),
			want: "created:>2026-10-11",
		},
		{
			name: "month boundary",
			now:  time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			want: "created:>2026-02-24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ghAdapter.TrendingQuery(tt.now))
		})
	}
}
