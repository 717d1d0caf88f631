// filepath: internal/repository/migration.go
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"gallerybase/internal/db/migrations"
	"gallerybase/internal/shared"
)

func prepareGoose() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// EnsureSchemaBootstrapped migrates a fresh database all the way up. A
// database that already carries migration bookkeeping is left alone, even
// when outdated; updating one is an explicit 'migrate up'.
func (s *Repository) EnsureSchemaBootstrapped() error {
	var name string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='goose_db_version'").Scan(&name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	s.Logger.Info("Fresh database detected, applying migrations")
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.Up(s.DB(), "."); err != nil {
		return fmt.Errorf("failed to bootstrap database: %w", err)
	}
	return nil
}

// ValidateSchema verifies the stored schema version matches what this
// build expects.
func (s *Repository) ValidateSchema() error {
	if err := prepareGoose(); err != nil {
		return err
	}
	current, err := goose.GetDBVersion(s.DB())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current < int64(shared.CurrentDBVersion) {
		return fmt.Errorf("database schema is outdated (version %d, expected %d): run 'migrate up'",
			current, shared.CurrentDBVersion)
	}
	return nil
}
