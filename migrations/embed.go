// Package migrations embeds the SQL migration files into the binary so the
// settings database can be created without the files on disk.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS to pass to database.Migrate.
const Dir = "."
