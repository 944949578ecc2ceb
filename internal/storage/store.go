package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/starford/recordbook/internal/apperr"
	"github.com/starford/recordbook/internal/codec"
	"github.com/starford/recordbook/internal/models"
)

// Store owns a backing file and the in-memory views derived from it: the
// loaded record sequence and the identifier set.
//
// The file is the source of truth. Every mutating call keeps both views in
// step with what it wrote; changes made by other processes are picked up by
// Reload. A Store is not safe for concurrent use.
type Store struct {
	path    string
	records []models.Record
	ids     idSet
}

// New creates a Store for the file at path and loads it. A missing file is
// treated as an empty store.
func New(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	s := &Store{path: abs, ids: idSet{}}
	if err := s.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Create truncates or creates the backing file, creating its directory if
// needed, and empties the in-memory views.
func (s *Store) Create() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	return s.Clear()
}

// Load reads the backing file and appends every valid record to the
// in-memory views. Lines that do not decode are skipped.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", s.path, err)
	}
	defer f.Close()

	err = scanLines(f, func(line string) error {
		r, err := codec.Unmarshal(line)
		if err != nil {
			return nil
		}
		s.records = append(s.records, r)
		s.ids.add(r.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	return nil
}

// Reload discards the in-memory views and loads them again from disk.
func (s *Store) Reload() error {
	s.reset()
	if err := s.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear truncates the backing file and empties the in-memory views.
func (s *Store) Clear() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("storage: truncate %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", s.path, err)
	}
	s.reset()
	return nil
}

func (s *Store) reset() {
	s.records = nil
	s.ids = idSet{}
}

// Add validates r and appends it to the backing file. An id that is already
// present fails with apperr.ErrDuplicateID and leaves the file untouched.
func (s *Store) Add(r models.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidValue, err)
	}
	if s.ids.has(r.ID) {
		return fmt.Errorf("%w: %d", apperr.ErrDuplicateID, r.ID)
	}
	if err := s.appendLine(codec.Marshal(r)); err != nil {
		return err
	}
	s.ids.add(r.ID)
	s.records = append(s.records, r)
	return nil
}

// appendLine writes line to the end of the backing file, first terminating
// a last line that was left without a newline.
func (s *Store) appendLine(line string) error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open %s for append: %w", s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: stat %s: %w", s.path, err)
	}
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil && !errors.Is(err, io.EOF) {
			_ = f.Close()
			return fmt.Errorf("storage: read tail: %w", err)
		}
		if last[0] != '\n' {
			line = "\n" + line
		}
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: append: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", s.path, err)
	}
	return nil
}

// Scan streams every valid record of the backing file, in file order, to fn.
// Iteration stops at the first error returned by fn.
func (s *Store) Scan(fn func(models.Record) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", s.path, err)
	}
	defer f.Close()

	return scanLines(f, func(line string) error {
		r, err := codec.Unmarshal(line)
		if err != nil {
			return nil
		}
		return fn(r)
	})
}

// Find re-reads the backing file and returns the records whose field equals
// value. Numeric fields compare by their decimal form. An unknown field or a
// missing file yields no records.
func (s *Store) Find(field, value string) ([]models.Record, error) {
	out := []models.Record{}
	if !models.IsField(field) {
		return out, nil
	}
	err := s.Scan(func(r models.Record) error {
		if r.Matches(field, value) {
			out = append(out, r)
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return out, nil
}

// Delete removes every record whose field equals value and returns how many
// were removed. Other lines, including ones that do not decode, are kept
// verbatim. When nothing matches the file is not rewritten.
func (s *Store) Delete(field, value string) (int, error) {
	if !models.IsField(field) {
		return 0, nil
	}
	// Duplicate ids can exist on disk, so an id only leaves the set when
	// no kept line still carries it.
	var removed []int
	kept := idSet{}
	n, err := rewriteFile(s.path, func(line string) (lineAction, string, error) {
		r, err := codec.Unmarshal(line)
		if err != nil {
			return keepLine, "", nil
		}
		if !r.Matches(field, value) {
			kept.add(r.ID)
			return keepLine, "", nil
		}
		removed = append(removed, r.ID)
		return dropLine, "", nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	for _, id := range removed {
		if !kept.has(id) {
			s.ids.remove(id)
		}
	}
	s.records = slices.DeleteFunc(s.records, func(r models.Record) bool {
		return r.Matches(field, value)
	})
	return n, nil
}

// Edit sets field of the record with the given id to value and rewrites its
// line in place. The id itself cannot be edited.
func (s *Store) Edit(id int, field, value string) (models.Record, error) {
	if !models.IsEditable(field) {
		return models.Record{}, fmt.Errorf("%w: %q", apperr.ErrInvalidField, field)
	}
	idx := slices.IndexFunc(s.records, func(r models.Record) bool { return r.ID == id })
	if idx < 0 {
		return models.Record{}, fmt.Errorf("%w: record %d", apperr.ErrNotFound, id)
	}
	updated, err := s.records[idx].WithField(field, value)
	if err != nil {
		return models.Record{}, err
	}

	line := codec.Marshal(updated)
	n, err := rewriteFile(s.path, func(l string) (lineAction, string, error) {
		r, err := codec.Unmarshal(l)
		if err != nil || r.ID != id {
			return keepLine, "", nil
		}
		return replaceLine, line, nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Record{}, fmt.Errorf("%w: record %d", apperr.ErrNotFound, id)
		}
		return models.Record{}, err
	}
	if n == 0 {
		return models.Record{}, fmt.Errorf("%w: record %d not on disk", apperr.ErrNotFound, id)
	}
	s.records[idx] = updated
	return updated, nil
}

// Records returns a copy of the loaded record sequence.
func (s *Store) Records() []models.Record {
	return slices.Clone(s.records)
}

// Has reports whether id is in the identifier set.
func (s *Store) Has(id int) bool {
	return s.ids.has(id)
}

// Len returns the number of ids in the identifier set.
func (s *Store) Len() int {
	return len(s.ids)
}
