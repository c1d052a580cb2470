// Package migrations embeds the numbered schema migrations for the SQL
// backends. Each dialect lives in its own directory.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
