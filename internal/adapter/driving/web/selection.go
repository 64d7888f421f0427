package web

import (
	"net/http"
	"net/url"

	"github.com/ericfisherdev/trendpanel/internal/domain/model"
)

// SelectionContext is the address-bound selection of one request. Views read
// it with Get and build links that write a partial selection with With.
type SelectionContext struct {
	query url.Values
	sel   model.Selection
}

// NewSelectionContext reads the selection from the request's query string.
func NewSelectionContext(r *http.Request) SelectionContext {
	q := r.URL.Query()
	return SelectionContext{query: q, sel: model.ParseSelection(q)}
}

// Get returns the current selection.
func (c SelectionContext) Get() model.Selection {
	return c.sel
}

// With returns the dashboard href for the current selection with p applied.
// Unrelated query parameters are kept and defaults are omitted.
func (c SelectionContext) With(p model.SelectionPatch) string {
	return withQuery("/", c.sel.Apply(p).Encode(c.query))
}

// Href returns the canonical dashboard href for the current selection.
func (c SelectionContext) Href() string {
	return withQuery("/", c.sel.Encode(c.query))
}

// Action returns path carrying the current selection, for forms that
// redirect back to the dashboard after a mutation.
func (c SelectionContext) Action(path string) string {
	return withQuery(path, c.sel.Encode(c.query))
}

// IsCanonical reports whether the request query already encodes the
// selection the way Href would.
func (c SelectionContext) IsCanonical() bool {
	return c.sel.Encode(c.query).Encode() == c.query.Encode()
}

func withQuery(path string, q url.Values) string {
	if encoded := q.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}
