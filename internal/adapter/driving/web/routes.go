package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the dashboard page, its CSRF-protected form
// actions under /app/ and the embedded stylesheet under /static/.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Page routes.
	mux.HandleFunc("GET /{$}", h.Dashboard)

	// Form actions; each redirects back to the dashboard.
	mux.HandleFunc("POST /app/stars/{id}", requireCSRF(h.ToggleStar))
	mux.HandleFunc("POST /app/refresh", requireCSRF(h.Refresh))
}
