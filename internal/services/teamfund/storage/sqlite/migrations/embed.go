package migrations

import "embed"

// FS contains embedded SQLite migrations for TeamFund storage.
//
//go:embed *.sql
var FS embed.FS
