// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/trendpanel/internal/application"
	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

// Dashboard is the application surface the JSON API reads from.
type Dashboard interface {
	View(ctx context.Context, sel model.Selection) application.DashboardView
	ViewAndWait(ctx context.Context, sel model.Selection) application.DashboardView
	Refresh(ctx context.Context) application.QueryState
	ToggleStar(ctx context.Context, id int64) bool
	StarredIDs() []int64
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	dashboard Dashboard
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(dashboard Dashboard, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/repos", h.ListRepos)
	mux.HandleFunc("GET /api/v1/languages", h.ListLanguages)
	mux.HandleFunc("GET /api/v1/starred", h.ListStarred)
	mux.HandleFunc("POST /api/v1/starred/{id}", h.ToggleStar)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps handler with request ID, logging and recovery middleware.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// NewServeMux creates an http.Handler with only the API routes registered and
// wrapped with middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// ListRepos returns the trending list for the selection in the query string.
// Fresh data is served immediately; missing or stale data is waited for.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	sel := model.ParseSelection(r.URL.Query())
	view := h.dashboard.ViewAndWait(r.Context(), sel)

	writeJSON(w, http.StatusOK, toDashboardResponse(view))
}

// ListLanguages returns the distinct languages of the current result set.
func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	view := h.dashboard.ViewAndWait(r.Context(), model.DefaultSelection())

	languages := view.Languages
	if languages == nil {
		languages = []string{}
	}

	writeJSON(w, http.StatusOK, LanguagesResponse{
		Languages: languages,
		Error:     view.Error,
	})
}

// ListStarred returns the starred repositories present in the current result
// set together with every starred ID.
func (h *Handler) ListStarred(w http.ResponseWriter, r *http.Request) {
	sel := model.Selection{Tab: model.TabStarred, Language: model.LanguageAll}
	view := h.dashboard.ViewAndWait(r.Context(), sel)

	resp := toDashboardResponse(view)
	writeJSON(w, http.StatusOK, StarredResponse{
		IDs:   nonNilIDs(h.dashboard.StarredIDs()),
		Repos: resp.Repos,
		Error: resp.Error,
	})
}

// ToggleStar flips the starred state of the repository with the given ID.
func (h *Handler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}

	starred := h.dashboard.ToggleStar(r.Context(), id)
	h.logger.Info("star toggled", "repo_id", id, "starred", starred)

	writeJSON(w, http.StatusOK, StarToggleResponse{
		ID:      id,
		Starred: starred,
	})
}

// Refresh forces a refetch of the trending list and returns the new state.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	state := h.dashboard.Refresh(r.Context())

	writeJSON(w, http.StatusOK, RefreshResponse{
		TotalCount: state.TotalCount,
		Count:      len(state.Data),
		UpdatedAt:  formatTime(state.UpdatedAt),
		Error:      state.Error,
	})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   h.now().UTC().Format(time.RFC3339),
	})
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
