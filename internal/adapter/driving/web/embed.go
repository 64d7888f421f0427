package web

import "embed"

// StaticFS holds the dashboard stylesheet.
//
//go:embed static/app.css
var StaticFS embed.FS
