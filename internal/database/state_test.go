package database

import (
	"os"
	"testing"

	"github.com/nbsearch/nbsearch/internal/config"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.Config{DataDirectory: t.TempDir()}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestNew(t *testing.T) {
	cfg := &config.Config{DataDirectory: t.TempDir()}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(cfg.GetStatePath()); os.IsNotExist(err) {
		t.Error("state database file was not created")
	}
}

func TestStateRepositoryPutAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepository(db.Conn())

	if err := repo.Put("sub/a.ipynb", "sig_meme_a.ipynb", "2024-03-01T12:00:00Z"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	row, err := repo.Get("sub/a.ipynb")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row == nil {
		t.Fatal("Get() returned nil for a stored path")
	}
	if row.NotebookID != "sig_meme_a.ipynb" || row.MTime != "2024-03-01T12:00:00Z" {
		t.Errorf("row = %+v", row)
	}
}

func TestStateRepositoryGetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepository(db.Conn())

	row, err := repo.Get("never-indexed.ipynb")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row != nil {
		t.Errorf("Get() = %+v, want nil for a missing path", row)
	}
}

func TestStateRepositoryPutUpdatesExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepository(db.Conn())

	if err := repo.Put("a.ipynb", "id-old", "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := repo.Put("a.ipynb", "id-new", "2024-02-01T00:00:00Z"); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}

	row, err := repo.Get("a.ipynb")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row.NotebookID != "id-new" || row.MTime != "2024-02-01T00:00:00Z" {
		t.Errorf("row = %+v, want the updated values", row)
	}

	rows, err := repo.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("List() returned %d rows, want 1", len(rows))
	}
}

func TestStateRepositoryListAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStateRepository(db.Conn())

	for _, path := range []string{"b.ipynb", "a.ipynb", "c.ipynb"} {
		if err := repo.Put(path, "id-"+path, "2024-01-01T00:00:00Z"); err != nil {
			t.Fatalf("Put(%q) error: %v", path, err)
		}
	}

	rows, err := repo.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("List() returned %d rows, want 3", len(rows))
	}
	if rows[0].Path != "a.ipynb" {
		t.Errorf("List() not ordered by path: first = %q", rows[0].Path)
	}

	if err := repo.Delete("b.ipynb"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	row, err := repo.Get("b.ipynb")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if row != nil {
		t.Error("deleted row still present")
	}
}
