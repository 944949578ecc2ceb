package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/recordbook/internal/journal"
	"github.com/starford/recordbook/internal/recordservice"
	"github.com/starford/recordbook/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// Session is an opened record store together with its journal and the
// service in front of them. Every entry point (CLI command, HTTP server,
// MCP server) works through one.
type Session struct {
	Service *recordservice.Service
	Store   *storage.Store

	journal *journal.DB
}

// OpenSession opens the store and, when enabled, the journal described by
// cfg. Extra service options such as event callbacks are appended.
func OpenSession(cfg *Config, logger *slog.Logger, extra ...recordservice.Option) (*Session, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	store, err := storage.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	sess := &Session{Store: store}
	opts := []recordservice.Option{recordservice.WithLogger(logger)}

	if cfg.Journal.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
		sess.journal = db
		opts = append(opts, recordservice.WithJournal(db))
	}

	sess.Service = recordservice.New(store, append(opts, extra...)...)
	return sess, nil
}

// Close releases the journal database.
func (s *Session) Close() error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Close()
}
