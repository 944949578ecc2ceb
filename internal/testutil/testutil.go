// Package testutil provides shared test helpers for setting up stores and journals.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/recordbook/internal/journal"
	"github.com/starford/recordbook/internal/storage"
)

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "recordbook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates an empty backing file in a temporary directory and a
// store over it.
func TestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "records.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Create(); err != nil {
		t.Fatal(err)
	}
	return store
}
