package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// IndexedNotebook is one row of index state.
type IndexedNotebook struct {
	Path       string `json:"path"`
	NotebookID string `json:"notebook_id"`
	MTime      string `json:"mtime"`
}

// StateRepository tracks which notebooks are already indexed.
type StateRepository struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the state row for a path, or nil when the path has not
// been indexed yet.
func (r *StateRepository) Get(path string) (*IndexedNotebook, error) {
	var row IndexedNotebook
	err := r.db.QueryRow(
		"SELECT path, notebook_id, mtime FROM indexed_notebooks WHERE path = ?",
		path,
	).Scan(&row.Path, &row.NotebookID, &row.MTime)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index state: %w", err)
	}
	return &row, nil
}

// Put records a notebook as indexed at the given modification time.
func (r *StateRepository) Put(path, notebookID, mtime string) error {
	_, err := r.db.Exec(
		`INSERT INTO indexed_notebooks (path, notebook_id, mtime) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET notebook_id = excluded.notebook_id,
		   mtime = excluded.mtime, indexed_at = CURRENT_TIMESTAMP`,
		path, notebookID, mtime,
	)
	if err != nil {
		return fmt.Errorf("failed to save index state: %w", err)
	}
	return nil
}

// List returns all state rows.
func (r *StateRepository) List() ([]*IndexedNotebook, error) {
	rows, err := r.db.Query("SELECT path, notebook_id, mtime FROM indexed_notebooks ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to list index state: %w", err)
	}
	defer rows.Close()

	var indexed []*IndexedNotebook
	for rows.Next() {
		var row IndexedNotebook
		if err := rows.Scan(&row.Path, &row.NotebookID, &row.MTime); err != nil {
			return nil, fmt.Errorf("failed to scan index state: %w", err)
		}
		indexed = append(indexed, &row)
	}
	return indexed, rows.Err()
}

// Delete removes the state row for a path.
func (r *StateRepository) Delete(path string) error {
	_, err := r.db.Exec("DELETE FROM indexed_notebooks WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete index state: %w", err)
	}
	return nil
}
