package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/recordbook/internal/apperr"
)

type cliEnv struct {
	config string
	store  string
	dir    string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		config: filepath.Join(dir, "config.yaml"),
		store:  filepath.Join(dir, "records.txt"),
		dir:    dir,
	}
	body := "store:\n" +
		"  path: " + env.store + "\n" +
		"  backup_dir: " + filepath.Join(dir, "backups") + "\n" +
		"journal:\n" +
		"  enabled: true\n" +
		"  path: " + filepath.Join(dir, "journal.db") + "\n"
	if err := os.WriteFile(env.config, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	defer func() { stdout = prev }()

	argv := append([]string{"recordbook", "--config", e.config}, args...)
	err := newApp().Run(context.Background(), argv)
	return buf.String(), err
}

func (e cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestCLI_AddFindEditDelete(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "init")
	env.mustRun(t, "add", "1", "Alice", "30", "1 Main St")
	env.mustRun(t, "add", "--line", "2,Bob,25,Elm")

	out := env.mustRun(t, "find", "name=Alice")
	if strings.TrimSpace(out) != "1, Alice, 30, 1 Main St" {
		t.Errorf("find output = %q", out)
	}

	out = env.mustRun(t, "edit", "2", "age", "26")
	if !strings.Contains(out, "2, Bob, 26, Elm") {
		t.Errorf("edit output = %q", out)
	}

	out = env.mustRun(t, "delete", "id=1")
	if strings.TrimSpace(out) != "deleted 1" {
		t.Errorf("delete output = %q", out)
	}

	data, err := os.ReadFile(env.store)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "2,Bob,26,Elm\n" {
		t.Errorf("file = %q", data)
	}
}

func TestCLI_DuplicateID(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "add", "7", "A", "1", "X")

	_, err := env.run(t, "add", "7", "B", "2", "Y")
	if !errors.Is(err, apperr.ErrDuplicateID) {
		t.Fatalf("err = %v, want duplicate id", err)
	}
}

func TestCLI_BadArguments(t *testing.T) {
	env := newCLIEnv(t)

	cases := [][]string{
		{"add", "1", "A"},
		{"add", "x", "A", "1", "B"},
		{"find", "name"},
		{"edit", "1", "name"},
		{"history", "zero"},
	}
	for _, args := range cases {
		if _, err := env.run(t, args...); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%v: err = %v, want invalid input", args, err)
		}
	}
}

func TestCLI_ListEmpty(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "list")
	if strings.TrimSpace(out) != "no records" {
		t.Errorf("list output = %q", out)
	}
}

func TestCLI_BackupRestore(t *testing.T) {
	env := newCLIEnv(t)
	backup := filepath.Join(env.dir, "copy.txt")

	env.mustRun(t, "add", "1", "A", "1", "X")
	env.mustRun(t, "backup", backup)
	env.mustRun(t, "clear")
	out := env.mustRun(t, "restore", backup)
	if !strings.Contains(out, "(1 records)") {
		t.Errorf("restore output = %q", out)
	}

	out = env.mustRun(t, "history", "10")
	for _, op := range []string{"add", "backup", "clear", "restore"} {
		if !strings.Contains(out, op) {
			t.Errorf("history missing %q:\n%s", op, out)
		}
	}
}

func TestCLI_Export(t *testing.T) {
	env := newCLIEnv(t)
	dst := filepath.Join(env.dir, "out.xlsx")

	env.mustRun(t, "add", "1", "A", "1", "X")
	env.mustRun(t, "export", dst)
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		t.Fatalf("export file: %v", err)
	}
}
