package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQLite connection behind the menu cache contract.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// dateFormat is the storage format for menu dates. Date-only by construction,
// so range queries never have to strip time components.
const dateFormat = "2006-01-02"

// New opens (creating if needed) the database at path and ensures the schema
// exists.
func New(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("path", path).Msg("database initialized")
	}
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS menu_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS menu_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			day_name TEXT NOT NULL,
			menu_items TEXT NOT NULL DEFAULT '',
			main_dish TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '',
			menu_type_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(date, menu_type_id),
			FOREIGN KEY (menu_type_id) REFERENCES menu_types(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_entries_date ON menu_entries(date)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_entries_updated ON menu_entries(updated_at)`,

		`CREATE TABLE IF NOT EXISTS scraping_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			request_successful BOOLEAN NOT NULL,
			parsing_successful BOOLEAN NOT NULL,
			new_menu_items_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scraping_logs_timestamp ON scraping_logs(timestamp)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("execute %q: %w", query[:40], err)
		}
	}
	return nil
}

// Ping verifies the connection, used by the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}
