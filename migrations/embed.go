// Package migrations embeds the PostgreSQL schema migrations
package migrations

import "embed"

// FS holds the numbered up/down migration pairs
//
//go:embed *.sql
var FS embed.FS
