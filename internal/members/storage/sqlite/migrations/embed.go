package migrations

import "embed"

// FS contains embedded SQLite migrations for members storage.
//
//go:embed *.sql
var FS embed.FS
