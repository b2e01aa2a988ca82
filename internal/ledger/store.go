package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"modsuite/internal/config"
	"modsuite/internal/fileutil"
	"modsuite/internal/services"
)

// Store is the SQLite-backed ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the ledger configured in cfg, creating it if needed.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("ledger: config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.LedgerPath)
}

// OpenPath connects to the ledger database at path and applies migrations.
func OpenPath(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrValidation, "ledger", "open", "ledger path is empty", nil)
	}
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "ledger", "open", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// foreign_keys is per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
