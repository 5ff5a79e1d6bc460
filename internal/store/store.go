// Package store implements the device-local persistence core: a
// schema-versioned SQLite database for domain entities, a flat key-value
// store for settings and the denormalized calendar list, a TTL-bounded
// weather cache, and a single façade that owns both engine handles for
// the process lifetime.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	"farmstore/internal/config"
	"farmstore/internal/logging"
)

// storeState tracks the façade lifecycle. Only stateReady accepts
// operations.
type storeState int

const (
	stateUninitialized storeState = iota
	stateInitializing
	stateReady
	stateClosed
)

func (s storeState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitializing:
		return "initializing"
	case stateReady:
		return "ready"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Store composes the relational store, key-value store, migration engine,
// retry executor and caches behind one API surface. Construct with New
// and call Initialize before use; Close is idempotent. A Store is safe
// for concurrent use, but concurrent writers to the same logical row get
// database-level retry, not merge logic.
type Store struct {
	mu    sync.RWMutex
	state storeState

	cfg  config.Config
	db   *sql.DB
	kv   *KeyValueStore
	exec *OperationExecutor

	migration *MigrationReport
}

// New builds an uninitialized Store from cfg. No I/O happens until
// Initialize.
func New(cfg config.Config) *Store {
	return &Store{
		state: stateUninitialized,
		cfg:   cfg,
		exec:  NewOperationExecutor(cfg.Retry.MaxRetries, cfg.Retry.BaseDelayMS),
	}
}

// Initialize opens both engines, runs schema migrations and transitions
// the store to ready. Returns the migration report for diagnostics.
// Calling Initialize on a ready store is a no-op returning the prior
// report; calling it on a closed store is an error.
func (s *Store) Initialize() (*MigrationReport, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "Initialize")
	defer timer.Stop()

	s.mu.Lock()
	switch s.state {
	case stateReady:
		report := s.migration
		s.mu.Unlock()
		return report, nil
	case stateInitializing:
		s.mu.Unlock()
		return nil, fmt.Errorf("initialize already in progress")
	case stateClosed:
		s.mu.Unlock()
		return nil, fmt.Errorf("store is closed: %w", ErrNotInitialized)
	}
	s.state = stateInitializing
	s.mu.Unlock()

	logging.Boot("Initializing store (db=%s, kv=%s)", s.cfg.DatabasePath, s.cfg.KVPath)

	db, err := openDatabase(s.cfg.DatabasePath)
	if err != nil {
		s.fail()
		return nil, err
	}

	report, err := RunMigrations(db, s.cfg.DatabasePath, CurrentSchemaVersion)
	if err != nil {
		db.Close()
		s.fail()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	kv, err := OpenKeyValueStore(s.cfg.KVPath)
	if err != nil {
		db.Close()
		s.fail()
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.kv = kv
	s.migration = report
	s.state = stateReady
	s.mu.Unlock()

	// Opportunistic cleanup of expired cache rows. Non-fatal.
	if purged, err := s.SweepExpired(); err != nil {
		logging.CacheDebug("Startup cache sweep failed: %v", err)
	} else if purged > 0 {
		logging.Cache("Startup cache sweep purged %d expired rows", purged)
	}

	logging.Boot("Store ready (schema v%d, %d migration warnings)", CurrentSchemaVersion, len(report.Warnings))
	return report, nil
}

// fail rolls the lifecycle back to uninitialized after a failed
// Initialize so the caller may retry.
func (s *Store) fail() {
	s.mu.Lock()
	s.state = stateUninitialized
	s.mu.Unlock()
}

// Close releases both engine handles. Idempotent; a closed store rejects
// all further operations with ErrNotInitialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateClosed {
		return nil
	}
	prior := s.state
	s.state = stateClosed

	var firstErr error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
		s.db = nil
	}
	if s.kv != nil {
		if err := s.kv.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close key-value store: %w", err)
		}
		s.kv = nil
	}

	logging.Boot("Store closed (was %s)", prior)
	logging.Sync()
	return firstErr
}

// MigrationReport returns the report from the last Initialize, or nil if
// the store never initialized.
func (s *Store) MigrationReport() *MigrationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.migration
}

// handles returns the engine handles if the store is ready.
func (s *Store) handles() (*sql.DB, *KeyValueStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateReady {
		return nil, nil, fmt.Errorf("store is %s: %w", s.state, ErrNotInitialized)
	}
	return s.db, s.kv, nil
}

// execute guards op behind the lifecycle check, then runs it under the
// bounded-retry executor.
func (s *Store) execute(op string, fn func(db *sql.DB) error) error {
	db, _, err := s.handles()
	if err != nil {
		return err
	}
	return s.exec.Execute(op, func() error { return fn(db) })
}

// KV exposes the key-value store for scalar settings. Returns an error
// when the store is not ready.
func (s *Store) KV() (*KeyValueStore, error) {
	_, kv, err := s.handles()
	if err != nil {
		return nil, err
	}
	return kv, nil
}
