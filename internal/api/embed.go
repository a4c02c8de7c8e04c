package api

import "embed"

// templateFS holds the HTML page templates.
//
//go:embed templates/*.html
var templateFS embed.FS
