package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/recordbook/internal/models"
)

func TestBackupAndRestore(t *testing.T) {
	s := tempStore(t)
	mustAdd(t, s, models.Record{ID: 1, Name: "A", Age: 10, Address: "a"})
	mustAdd(t, s, models.Record{ID: 2, Name: "B", Age: 20, Address: "b"})

	backup := filepath.Join(t.TempDir(), "backup.txt")
	if err := os.WriteFile(backup, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Backup(backup); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if got := readFile(t, backup); got != readFile(t, s.Path()) {
		t.Errorf("backup = %q", got)
	}

	if _, err := s.Delete("id", "1"); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, s, models.Record{ID: 3, Name: "C", Age: 30, Address: "c"})

	if err := s.Restore(backup); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := readFile(t, s.Path()); got != "1,A,10,a\n2,B,20,b\n" {
		t.Errorf("restored file = %q", got)
	}
	if !s.Has(1) || s.Has(3) {
		t.Error("Restore should reload the id set")
	}
	if err := s.Add(models.Record{ID: 1, Name: "dup", Age: 1, Address: "d"}); err == nil {
		t.Error("restored id 1 should be a duplicate")
	}
}

func TestBackupMissingSource(t *testing.T) {
	s, _ := New(filepath.Join(t.TempDir(), "absent.txt"))
	dst := filepath.Join(t.TempDir(), "backup.txt")
	if err := s.Backup(dst); err == nil {
		t.Fatal("expected error backing up a missing file")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("destination should not exist, stat err = %v", err)
	}
}

func TestRestoreMissingBackup(t *testing.T) {
	s := tempStore(t)
	mustAdd(t, s, models.Record{ID: 1, Name: "A", Age: 10, Address: "a"})
	if err := s.Restore(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error restoring a missing backup")
	}
	if got := readFile(t, s.Path()); got != "1,A,10,a\n" {
		t.Errorf("file = %q", got)
	}
}
