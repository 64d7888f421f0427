// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ericfisherdev/trendpanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/trendpanel/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/trendpanel/internal/application"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	dashboard *application.DashboardService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(dashboard *application.DashboardService, logger *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// Dashboard renders the dashboard for the selection in the address. It never
// waits for GitHub: while a fetch is in flight the page shows what is cached
// and reloads itself.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sc := NewSelectionContext(r)
	if !sc.IsCanonical() {
		http.Redirect(w, r, sc.Href(), http.StatusFound)
		return
	}

	csrf := csrfToken(w, r)
	view := h.dashboard.View(r.Context(), sc.Get())
	d := toDashboardViewModel(view, sc, csrf)

	layout := templates.Layout(d.Title, d.RefreshSeconds(), pages.Dashboard(d))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// ToggleStar flips the starred state of a repository and redirects back to
// the selection the form was posted from. Callers must check the CSRF token.
func (h *Handler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid repository id", http.StatusBadRequest)
		return
	}

	starred := h.dashboard.ToggleStar(r.Context(), id)
	h.logger.Info("star toggled", "repo_id", id, "starred", starred)

	http.Redirect(w, r, NewSelectionContext(r).Href(), http.StatusSeeOther)
}

// Refresh forces a refetch, waits for it and redirects back to the selection.
// A failed refetch is reported by the dashboard's error banner.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	state := h.dashboard.Refresh(r.Context())
	if state.Err != nil {
		h.logger.Warn("manual refresh failed", "error", state.Err)
	}

	http.Redirect(w, r, NewSelectionContext(r).Href(), http.StatusSeeOther)
}
