package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/trendpanel/internal/application"
	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RepoResponse is the JSON representation of a trending repository.
type RepoResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	Stars       int     `json:"stargazers_count"`
	StarsLabel  string  `json:"stargazers_label"`
	Language    *string `json:"language"`
	HTMLURL     string  `json:"html_url"`
	CreatedAt   string  `json:"created_at"`
	CreatedOn   string  `json:"created_on"`
	Starred     bool    `json:"starred"`
}

// DashboardResponse is the JSON representation of one dashboard selection.
// Error is set when the last fetch failed; Repos still holds the last good data.
type DashboardResponse struct {
	Tab          string         `json:"tab"`
	Language     string         `json:"language"`
	Repos        []RepoResponse `json:"repos"`
	TotalCount   int            `json:"total_count"`
	TrendingSize int            `json:"trending_count"`
	StarredCount int            `json:"starred_count"`
	Loading      bool           `json:"loading"`
	UpdatedAt    string         `json:"updated_at,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// LanguagesResponse is the JSON representation of the language filter options.
type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Error     string   `json:"error,omitempty"`
}

// StarredResponse is the JSON representation of the starred set.
type StarredResponse struct {
	IDs   []int64        `json:"ids"`
	Repos []RepoResponse `json:"repos"`
	Error string         `json:"error,omitempty"`
}

// StarToggleResponse is the JSON body returned after toggling a star.
type StarToggleResponse struct {
	ID      int64 `json:"id"`
	Starred bool  `json:"starred"`
}

// RefreshResponse is the JSON body returned after a forced refetch.
type RefreshResponse struct {
	TotalCount int    `json:"total_count"`
	Count      int    `json:"count"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	Error      string `json:"error,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRepoResponse converts a domain Repository to its JSON response representation.
func toRepoResponse(repo model.Repository, starred bool) RepoResponse {
	return RepoResponse{
		ID:          repo.ID,
		Name:        repo.Name,
		FullName:    repo.FullName,
		Description: repo.Description,
		Stars:       repo.Stars,
		StarsLabel:  application.FormatStarCount(repo.Stars),
		Language:    repo.Language,
		HTMLURL:     repo.HTMLURL,
		CreatedAt:   repo.CreatedAt,
		CreatedOn:   application.FormatCreatedDate(repo.CreatedAt),
		Starred:     starred,
	}
}

// toDashboardResponse converts a DashboardView to its JSON representation.
// Repos is always a non-nil array.
func toDashboardResponse(view application.DashboardView) DashboardResponse {
	repos := make([]RepoResponse, 0, len(view.Repos))
	for _, repo := range view.Repos {
		repos = append(repos, toRepoResponse(repo, view.Starred[repo.ID]))
	}

	return DashboardResponse{
		Tab:          string(view.Selection.Tab),
		Language:     view.Selection.Language,
		Repos:        repos,
		TotalCount:   view.TotalCount,
		TrendingSize: view.TrendingSize,
		StarredCount: view.StarredCount,
		Loading:      view.Loading,
		UpdatedAt:    formatTime(view.UpdatedAt),
		Error:        view.Error,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
