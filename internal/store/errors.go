package store

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when an operation is attempted before
// Initialize completed or after Close. Caller bug; recoverable by
// re-initializing.
var ErrNotInitialized = errors.New("store not initialized")

// ErrSchemaTooNew is returned when the on-disk schema version is newer
// than this binary's target version. There is no downgrade path; failing
// fast beats silently truncating a newer schema.
var ErrSchemaTooNew = errors.New("database schema is newer than this build supports")

// ErrNotFound is returned by updates that target a row which does not
// exist. Point lookups signal absence with a false bool instead.
var ErrNotFound = errors.New("record not found")

// errCorruptCacheEntry marks a cached blob that failed to deserialize.
// Never surfaced to callers; the entry is purged and treated as a miss.
var errCorruptCacheEntry = errors.New("corrupt cache entry")

// OperationError wraps the last underlying engine error after the retry
// budget is exhausted.
type OperationError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
