package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kjk/common/atomicfile"
)

type lineAction int

const (
	keepLine lineAction = iota
	dropLine
	replaceLine
)

// lineFunc decides what happens to one line of the source file. The
// returned string is only used with replaceLine. An error aborts the
// rewrite and leaves the source untouched.
type lineFunc func(line string) (lineAction, string, error)

// scanLines calls fn for every line of r without its trailing newline.
// A final line without a terminator is still delivered.
func scanLines(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if ferr := fn(strings.TrimSuffix(line, "\n")); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// rewriteFile streams path through fn into an atomic replacement of path
// and commits it when at least one line was dropped or replaced. Otherwise,
// and on any error, the replacement is discarded and path is left
// untouched. It returns the number of lines dropped or replaced.
func rewriteFile(path string, fn lineFunc) (int, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("storage: stat %s: %w", path, err)
	}

	dst, err := atomicfile.New(path)
	if err != nil {
		return 0, fmt.Errorf("storage: create temp: %w", err)
	}
	defer dst.RemoveIfNotClosed()

	w := bufio.NewWriter(dst)
	changed := 0
	err = scanLines(src, func(line string) error {
		action, replacement, err := fn(line)
		if err != nil {
			return err
		}
		switch action {
		case dropLine:
			changed++
			return nil
		case replaceLine:
			changed++
			line = replacement
		}
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		return w.WriteByte('\n')
	})
	if err != nil {
		return 0, fmt.Errorf("storage: rewrite %s: %w", path, err)
	}
	if changed == 0 {
		return 0, nil
	}

	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("storage: flush temp: %w", err)
	}
	if err := dst.Close(); err != nil {
		return 0, fmt.Errorf("storage: replace %s: %w", path, err)
	}
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("storage: chmod %s: %w", path, err)
	}
	return changed, nil
}

// replaceFrom atomically replaces dst with the content of r.
func replaceFrom(dst string, r io.Reader, perm os.FileMode) error {
	f, err := atomicfile.New(dst)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	defer f.RemoveIfNotClosed()

	w := bufio.NewWriter(f)
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("storage: copy: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("storage: flush temp: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: replace %s: %w", dst, err)
	}
	if err := os.Chmod(dst, perm); err != nil {
		return fmt.Errorf("storage: chmod %s: %w", dst, err)
	}
	return nil
}
