// Package storage implements the line-delimited record store.
package storage

import "github.com/starford/recordbook/internal/models"

// Provider is the interface for record store operations.
type Provider interface {
	// Add appends r after rejecting invalid input and duplicate ids.
	Add(r models.Record) error
	// Find re-reads the backing file and returns records whose field equals value.
	Find(field, value string) ([]models.Record, error)
	// Delete removes every record whose field equals value and returns the count.
	Delete(field, value string) (int, error)
	// Edit changes one non-id field of the record with the given id.
	Edit(id int, field, value string) (models.Record, error)
	// Scan streams valid records from the backing file in file order.
	Scan(fn func(models.Record) error) error
	// Backup copies the backing file to dst.
	Backup(dst string) error
	// Restore replaces the backing file with src and reloads.
	Restore(src string) error
	// Clear truncates the backing file.
	Clear() error
	// Reload rebuilds the in-memory views from disk.
	Reload() error
	// Len returns the number of ids in the identifier set.
	Len() int
	// Path returns the absolute path of the backing file.
	Path() string
}

// Verify *Store satisfies Provider at compile time.
var _ Provider = (*Store)(nil)
