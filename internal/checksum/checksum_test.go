package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileMatchesSum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	data := []byte("1,Alice,30,1 Main St\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != Sum(data) {
		t.Errorf("File = %s, Sum = %s", got, Sum(data))
	}
}

func TestFileMissing(t *testing.T) {
	got, err := File(filepath.Join(t.TempDir(), "absent"))
	if err != nil || got != "" {
		t.Errorf("File(missing) = %q, %v", got, err)
	}
}
