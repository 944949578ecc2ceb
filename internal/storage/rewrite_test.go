package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeLines(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatal(err)
	}
	return path
}

// onlyFile fails when the directory of path holds anything besides path.
func onlyFile(t *testing.T, path string) {
	t.Helper()
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(path) {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestRewriteFileActions(t *testing.T) {
	path := writeLines(t, "keep\ndrop\nswap\ntail", 0o640)
	n, err := rewriteFile(path, func(line string) (lineAction, string, error) {
		switch line {
		case "drop":
			return dropLine, "", nil
		case "swap":
			return replaceLine, "swapped", nil
		}
		return keepLine, "", nil
	})
	if err != nil {
		t.Fatalf("rewriteFile: %v", err)
	}
	if n != 2 {
		t.Errorf("changed = %d, want 2", n)
	}
	if got := readFile(t, path); got != "keep\nswapped\ntail\n" {
		t.Errorf("content = %q", got)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
	onlyFile(t, path)
}

func TestRewriteSourceUntouchedUntilCommit(t *testing.T) {
	const before = "1,A,10,a\n2,B,20,b\n"
	path := writeLines(t, before, 0o644)

	_, err := rewriteFile(path, func(line string) (lineAction, string, error) {
		if got := readFile(t, path); got != before {
			t.Errorf("source changed mid-rewrite: %q", got)
		}
		if strings.HasPrefix(line, "2,") {
			return replaceLine, "2,Bee,20,b", nil
		}
		return keepLine, "", nil
	})
	if err != nil {
		t.Fatalf("rewriteFile: %v", err)
	}
	if got := readFile(t, path); got != "1,A,10,a\n2,Bee,20,b\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRewriteAbortLeavesSourceIntact(t *testing.T) {
	const before = "1,A,10,a\n2,B,20,b\n3,C,30,c\n"
	path := writeLines(t, before, 0o644)
	errDisk := errors.New("disk full")

	_, err := rewriteFile(path, func(line string) (lineAction, string, error) {
		switch {
		case strings.HasPrefix(line, "1,"):
			return dropLine, "", nil
		case strings.HasPrefix(line, "3,"):
			return keepLine, "", errDisk
		}
		return keepLine, "", nil
	})
	if !errors.Is(err, errDisk) {
		t.Fatalf("err = %v, want %v", err, errDisk)
	}
	if got := readFile(t, path); got != before {
		t.Errorf("source changed: %q", got)
	}
	onlyFile(t, path)
}

func TestRewriteNoChangeDiscardsTemp(t *testing.T) {
	const before = "a\nb\n"
	path := writeLines(t, before, 0o644)

	n, err := rewriteFile(path, func(string) (lineAction, string, error) {
		return keepLine, "", nil
	})
	if err != nil || n != 0 {
		t.Fatalf("rewriteFile = %d, %v", n, err)
	}
	if got := readFile(t, path); got != before {
		t.Errorf("content = %q", got)
	}
	onlyFile(t, path)
}

func TestReplaceFrom(t *testing.T) {
	path := writeLines(t, "old\n", 0o644)
	if err := replaceFrom(path, strings.NewReader("new\n"), 0o600); err != nil {
		t.Fatalf("replaceFrom: %v", err)
	}
	if got := readFile(t, path); got != "new\n" {
		t.Errorf("content = %q", got)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	onlyFile(t, path)
}

func TestScanLinesKeepsCarriageReturns(t *testing.T) {
	var got []string
	err := scanLines(strings.NewReader("a\r\n\nb"), func(line string) error {
		got = append(got, line)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "a\r" || got[1] != "" || got[2] != "b" {
		t.Errorf("lines = %q", got)
	}
}
