package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// The schema migrations ship inside the binary so a deploy needs nothing
// on disk besides the SQLite file itself.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// RunMigrations brings the FormCoach schema up to date. Call it once on
// startup, before the HTTP server accepts requests.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrationFS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("database: goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("database: apply migrations: %w", err)
	}

	return nil
}
