// Package recordservice is the command interface in front of the record
// store: one method per operation, typed arguments, apperr error kinds.
// It serialises access to the store, journals mutations and emits change
// events.
package recordservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/starford/recordbook/internal/apperr"
	"github.com/starford/recordbook/internal/checksum"
	"github.com/starford/recordbook/internal/export"
	"github.com/starford/recordbook/internal/journal"
	"github.com/starford/recordbook/internal/models"
	"github.com/starford/recordbook/internal/storage"
)

// Event kinds passed to EventFunc.
const (
	EventCreated  = "record.created"
	EventUpdated  = "record.updated"
	EventDeleted  = "record.deleted"
	EventCleared  = "store.cleared"
	EventRestored = "store.restored"
	EventReloaded = "store.reloaded"
)

// EventFunc is called after a successful mutation.
type EventFunc func(kind string, data any)

// Option configures a Service.
type Option func(*Service)

// WithJournal records every mutating operation in j.
func WithJournal(j journal.Recorder) Option {
	return func(s *Service) {
		s.journal = j
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithEvents registers fn for change notifications.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) {
		s.onEvent = fn
	}
}

// Service coordinates the store, the journal and change events.
type Service struct {
	mu      sync.Mutex
	store   storage.Provider
	journal journal.Recorder
	logger  *slog.Logger
	onEvent EventFunc

	// lastSum is the backing file checksum after our most recent write,
	// used to tell our own writes from external ones.
	lastSum string
}

// New creates a service over store.
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSum, _ = checksum.File(store.Path())
	return s
}

// Path returns the backing file path.
func (s *Service) Path() string {
	return s.store.Path()
}

// Add inserts r. It fails with apperr.ErrDuplicateID or apperr.ErrInvalidValue.
func (s *Service) Add(ctx context.Context, r models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncLocked(ctx); err != nil {
		return models.Record{}, err
	}
	err := s.store.Add(r)
	s.record(ctx, journal.Entry{Op: journal.OpAdd, RecordID: &r.ID, Affected: affected(err, 1)}, err)
	if err != nil {
		return models.Record{}, err
	}
	s.emit(EventCreated, r)
	return r, nil
}

// Find returns the records whose field equals value.
func (s *Service) Find(_ context.Context, field, value string) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Find(field, value)
}

// List returns every valid record in file order.
func (s *Service) List(_ context.Context) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Record{}
	err := s.store.Scan(func(r models.Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return out, nil
}

// Delete removes every record whose field equals value. It fails with
// apperr.ErrNotFound when nothing matched.
func (s *Service) Delete(ctx context.Context, field, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncLocked(ctx); err != nil {
		return 0, err
	}
	n, err := s.store.Delete(field, value)
	if err == nil && n == 0 {
		err = apperr.ErrNotFound
	}
	s.record(ctx, journal.Entry{Op: journal.OpDelete, Field: field, Value: value, Affected: n}, err)
	if err != nil {
		return 0, err
	}
	s.emit(EventDeleted, map[string]any{"field": field, "value": value, "count": n})
	return n, nil
}

// Edit sets one of name, age or address on the record with the given id.
func (s *Service) Edit(ctx context.Context, id int, field, value string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncLocked(ctx); err != nil {
		return models.Record{}, err
	}
	updated, err := s.store.Edit(id, field, value)
	s.record(ctx, journal.Entry{Op: journal.OpEdit, RecordID: &id, Field: field, Value: value, Affected: affected(err, 1)}, err)
	if err != nil {
		return models.Record{}, err
	}
	s.emit(EventUpdated, updated)
	return updated, nil
}

// Clear empties the store.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Clear()
	s.record(ctx, journal.Entry{Op: journal.OpClear}, err)
	if err != nil {
		return err
	}
	s.emit(EventCleared, map[string]any{})
	return nil
}

// Backup copies the backing file to dst.
func (s *Service) Backup(ctx context.Context, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Backup(dst)
	s.record(ctx, journal.Entry{Op: journal.OpBackup, Value: dst}, err)
	return err
}

// Restore replaces the backing file with src and reloads the store.
func (s *Service) Restore(ctx context.Context, src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Restore(src)
	s.record(ctx, journal.Entry{Op: journal.OpRestore, Value: src}, err)
	if err != nil {
		return err
	}
	s.emit(EventRestored, map[string]any{"source": src})
	return nil
}

// Export writes the records as an xlsx workbook at dst.
func (s *Service) Export(ctx context.Context, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := export.ToFile(dst, s.store.Scan)
	s.record(ctx, journal.Entry{Op: journal.OpExport, Value: dst}, err)
	return err
}

// ExportTo streams the xlsx workbook to w.
func (s *Service) ExportTo(_ context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Write(w, s.scanOrEmpty)
}

func (s *Service) scanOrEmpty(fn func(models.Record) error) error {
	err := s.store.Scan(fn)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ReloadIfChanged reloads the store when the backing file no longer matches
// what this service last wrote. It reports whether a reload happened.
func (s *Service) ReloadIfChanged(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

// syncLocked is ReloadIfChanged for callers already holding s.mu.
func (s *Service) syncLocked(ctx context.Context) (bool, error) {
	sum, err := checksum.File(s.store.Path())
	if err != nil {
		return false, err
	}
	if sum == s.lastSum {
		return false, nil
	}
	err = s.store.Reload()
	s.record(ctx, journal.Entry{Op: journal.OpReload}, err)
	if err != nil {
		return false, err
	}
	s.emit(EventReloaded, map[string]any{})
	return true, nil
}

// Len returns the number of ids the store holds.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// History returns the most recent journal entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return []journal.Entry{}, nil
	}
	return s.journal.Recent(ctx, limit)
}

// record journals one operation. Journal failures are logged and never
// fail the operation itself. lastSum only follows successful writes of
// this service, so external edits are never mistaken for our own.
func (s *Service) record(ctx context.Context, e journal.Entry, opErr error) {
	sum, err := checksum.File(s.store.Path())
	if err != nil {
		s.logger.Warn("checksum failed", slog.String("path", s.store.Path()), slog.String("error", err.Error()))
	} else if opErr == nil && writesFile(e.Op) {
		s.lastSum = sum
	}

	e.Outcome = journal.OutcomeOK
	if opErr != nil {
		e.Outcome = journal.OutcomeFailed
		s.logger.Debug("operation failed", slog.String("op", e.Op), slog.String("error", opErr.Error()))
	} else {
		s.logger.Debug("operation applied", slog.String("op", e.Op), slog.Int("affected", e.Affected))
	}
	if s.journal == nil {
		return
	}
	e.Checksum = sum
	if err := s.journal.Append(ctx, e); err != nil {
		s.logger.Warn("journal append failed", slog.String("op", e.Op), slog.String("error", err.Error()))
	}
}

func (s *Service) emit(kind string, data any) {
	if s.onEvent != nil {
		s.onEvent(kind, data)
	}
}

// writesFile reports whether a successful op leaves the backing file in a
// state this service knows.
func writesFile(op string) bool {
	switch op {
	case journal.OpAdd, journal.OpDelete, journal.OpEdit, journal.OpClear, journal.OpRestore, journal.OpReload:
		return true
	}
	return false
}

func affected(err error, n int) int {
	if err != nil {
		return 0
	}
	return n
}
