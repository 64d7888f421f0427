package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Descriptions are author-controlled, so raw HTML is let through goldmark
// and stripped afterwards by the sanitizer.
var (
	descriptionMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	descriptionPolicy = newDescriptionPolicy()
)

// newDescriptionPolicy allows user-generated-content markup and opens
// absolute links in a new tab with rel="nofollow noopener".
func newDescriptionPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderMarkdown converts a repository description to sanitized HTML.
// Descriptions are plain text in practice but may carry inline markdown or
// raw HTML. Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(src), &buf); err != nil {
		return descriptionPolicy.Sanitize(src)
	}

	return descriptionPolicy.Sanitize(buf.String())
}
