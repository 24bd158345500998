// Package migrations embeds the node's PostgreSQL schema.
package migrations

import "embed"

// FS holds every NNN_name.up.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
