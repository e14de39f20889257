// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the member schema migrations (*_up.sql / *_down.sql).
//
//go:embed *.sql
var FS embed.FS
