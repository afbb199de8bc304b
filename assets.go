// Package reconconsole provides the embedded templates and static assets.
package reconconsole

import "embed"

// In dev mode templates and static files are read from disk so edits show up
// without a rebuild; production serves these embedded copies.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
