package storage

import (
	"fmt"
	"os"
)

// Backup copies the backing file to dst, replacing any file there, and
// verifies that dst exists afterwards.
func (s *Store) Backup(dst string) error {
	if err := copyFile(s.path, dst); err != nil {
		return fmt.Errorf("storage: backup: %w", err)
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("storage: backup: verify: %w", err)
	}
	return nil
}

// Restore replaces the backing file with a copy of src and reloads the
// in-memory views from it.
func (s *Store) Restore(src string) error {
	if err := copyFile(src, s.path); err != nil {
		return fmt.Errorf("storage: restore: %w", err)
	}
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("storage: restore: verify: %w", err)
	}
	return s.Reload()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}
	return replaceFrom(dst, in, info.Mode().Perm())
}
