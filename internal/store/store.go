// SPDX-License-Identifier: Apache-2.0

// Package store binds the migration engine to a concrete SQLite store. It
// owns the store file, its recorded-version metadata and the file lock that
// keeps migration single-writer: no other process may open the store for
// writing while a migration attempt holds the lock.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/stratahq/strata/internal/schema"
)

var (
	ErrNamespace = errorx.NewNamespace("store")

	// LockedError indicates another process holds the store lock.
	LockedError = ErrNamespace.NewType("locked")

	// IOError wraps failures of the underlying database or filesystem.
	IOError = ErrNamespace.NewType("io")
)

// versionTable records the single current schema version of the store.
const versionTable = `CREATE TABLE IF NOT EXISTS strata_version (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

// Store is one SQLite store file plus its sidecar lock.
//
// The mutex serializes migration work within the process; the flock does the
// same across processes. Reads through DB() are only safe once migration for
// this store has completed.
type Store struct {
	mu     sync.Mutex
	path   string
	db     *sql.DB
	lock   *flock.Flock
	logger *zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for store operations.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens (creating if needed) the store file at path and acquires its
// lock. It fails immediately with LockedError when another process holds the
// lock; waiting is the caller's decision, not ours.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	nop := zerolog.Nop()
	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: &nop,
	}
	for _, opt := range opts {
		opt(s)
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, IOError.Wrap(err, "cannot acquire lock for store %q", path)
	}
	if !locked {
		return nil, LockedError.New("store %q is locked by another process", path)
	}

	if err := s.connect(ctx); err != nil {
		_ = s.lock.Unlock()
		return nil, err
	}

	s.logger.Debug().Str("store", path).Msg("Store opened")
	return s, nil
}

func (s *Store) connect(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return IOError.Wrap(err, "cannot open store %q", s.path)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return IOError.Wrap(err, "cannot reach store %q", s.path)
	}

	if _, err := db.ExecContext(ctx, versionTable); err != nil {
		_ = db.Close()
		return IOError.Wrap(err, "cannot ensure version metadata in store %q", s.path)
	}

	s.db = db
	return nil
}

// Close releases the database handle and the store lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			firstErr = IOError.Wrap(err, "cannot close store %q", s.path)
		}
		s.db = nil
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = IOError.Wrap(err, "cannot release lock for store %q", s.path)
	}
	return firstErr
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// DB exposes the underlying handle for reads after migration completes.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RecordedVersion returns the version recorded in the store, or ok=false for
// a fresh store that has never been initialized.
func (s *Store) RecordedVersion(ctx context.Context) (string, bool, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT version FROM strata_version WHERE id = 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, IOError.Wrap(err, "cannot read recorded version of store %q", s.path)
	}
	return version, true, nil
}

// Initialize materializes def in a fresh store and records its version.
func (s *Store) Initialize(ctx context.Context, def *schema.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyTx(ctx, def.Version, func(tx *sql.Tx) error {
		for _, stmt := range schema.CreateStatements(def) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errorx.Decorate(err, "statement %q", stmt)
			}
		}
		return nil
	})
}

// ApplyDDL executes the generated statements for one transition and records
// the destination version, all in one transaction. An aborted step therefore
// leaves the previous version recorded, so a retry resumes at the failed
// step instead of restarting.
func (s *Store) ApplyDDL(ctx context.Context, version string, stmts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyTx(ctx, version, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errorx.Decorate(err, "statement %q", stmt)
			}
		}
		return nil
	})
}

// ApplyTransform runs a hand-written transform for one transition and records
// the destination version in the same transaction.
func (s *Store) ApplyTransform(ctx context.Context, version string, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyTx(ctx, version, fn)
}

func (s *Store) applyTx(ctx context.Context, version string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IOError.Wrap(err, "cannot begin transaction on store %q", s.path)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO strata_version (id, version, applied_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET version = excluded.version, applied_at = excluded.applied_at`,
		version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = tx.Rollback()
		return IOError.Wrap(err, "cannot record version %q in store %q", version, s.path)
	}

	if err := tx.Commit(); err != nil {
		return IOError.Wrap(err, "cannot commit transition to %q in store %q", version, s.path)
	}
	return nil
}

// Reset deletes the store file and re-creates it directly at def's version.
// Data loss is the point: this is the opt-in fallback for stores that are
// cheap to rebuild.
func (s *Store) Reset(ctx context.Context, def *schema.Definition) error {
	s.mu.Lock()
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mu.Unlock()
			return IOError.Wrap(err, "cannot close store %q before reset", s.path)
		}
		s.db = nil
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			s.mu.Unlock()
			return IOError.Wrap(err, "cannot remove store file %q", s.path+suffix)
		}
	}

	if err := s.connect(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.logger.Warn().
		Str("store", s.path).
		Str("version", def.Version).
		Msg("Store reset, all previous data discarded")

	return s.Initialize(ctx, def)
}
