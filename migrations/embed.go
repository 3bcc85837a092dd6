// Package migrations ships the settings and audit_logs schema. Importing
// it registers the embedded files with the database package.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.RegisterMigrations(migrationsFS, ".")
}
