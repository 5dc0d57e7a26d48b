// Package registry persists ActorProcess records (spec §4.9's `actors:
// map<ActorId, ActorProcess>`) to a local SQLite database, so a restarted
// TheaterRuntime can rediscover supervision-tree structure and reconnect
// surviving actors instead of starting from an empty map.
package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlite_migrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultMaxConns        = 10
	defaultConnMaxLifetime = 10 * time.Minute
	migrationsPath         = "migrations"
	migrationsInstanceName = "actor-registry"
)

// Config holds the arguments needed to open the actor-process registry.
type Config struct {
	// DatabaseFileName is the full path of the sqlite database file.
	DatabaseFileName string

	// SkipMigrations, if true, leaves the schema untouched (used by
	// callers that pre-migrated out of band).
	SkipMigrations bool
}

// Store is a sqlite-backed persistence layer for ActorProcess records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the registry database at
// cfg.DatabaseFileName and runs any pending migrations, mirroring the
// teacher's NewSqliteStore setup in internal/db/sqlite.go: WAL mode,
// foreign keys, and a bounded connection pool sized for a single writer
// with multiple readers.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.DatabaseFileName); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf(
				"creating registry directory: %w", err,
			)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000",
		cfg.DatabaseFileName,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxConns)
	db.SetMaxIdleConns(defaultMaxConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	s := &Store{db: db}

	if !cfg.SkipMigrations {
		if err := s.migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating registry database: %w", err)
		}
	}

	return s, nil
}

// migrate applies every pending up migration from the embedded schema set,
// following the teacher's httpfs-over-embed.FS wiring in
// internal/db/migrations.go.
func (s *Store) migrate() error {
	driver, err := sqlite_migrate.WithInstance(s.db, &sqlite_migrate.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	source, err := httpfs.New(http.FS(sqlSchemas), migrationsPath)
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		migrationsInstanceName, source, "sqlite3", driver,
	)
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
