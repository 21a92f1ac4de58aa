package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/nbsearch/nbsearch/internal/config"
	"github.com/nbsearch/nbsearch/internal/logger"
)

// DB holds the index state: which notebooks have been posted to the
// search backend, and at which modification time. It lets repeated
// index runs skip unchanged files and prune deleted ones.
type DB struct {
	conn *sql.DB
	cfg  *config.Config
}

func New(cfg *config.Config) (*DB, error) {
	statePath := cfg.GetStatePath()
	if err := os.MkdirAll(filepath.Dir(statePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logger.Debug("Index state path: %s", statePath)

	conn, err := sql.Open("sqlite3", statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index state database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize index state database: %w", err)
	}
	return db, nil
}

func (db *DB) initialize() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS indexed_notebooks (
			path TEXT PRIMARY KEY,
			notebook_id TEXT NOT NULL,
			mtime TEXT NOT NULL,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create indexed_notebooks table: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
