package store

import (
	"time"

	"farmstore/internal/logging"
)

// OperationExecutor runs storage operations under a bounded retry policy
// with quadratic backoff. It does not deduplicate side effects; retried
// operations must be idempotent at the call site (upsert, not append).
type OperationExecutor struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NewOperationExecutor builds an executor from retry tuning values.
// Out-of-range inputs fall back to the defaults (3 attempts, 100ms base).
func NewOperationExecutor(maxRetries, baseDelayMS int) *OperationExecutor {
	if maxRetries < 1 {
		maxRetries = 3
	}
	if baseDelayMS < 0 {
		baseDelayMS = 100
	}
	return &OperationExecutor{
		MaxRetries: maxRetries,
		BaseDelay:  time.Duration(baseDelayMS) * time.Millisecond,
	}
}

// Execute runs fn up to MaxRetries times, waiting BaseDelay * attempt^2
// between attempts. On exhaustion the last error is wrapped in an
// OperationError carrying the attempt count.
func (e *OperationExecutor) Execute(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= e.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			if attempt > 1 {
				logging.Store("%s succeeded on attempt %d/%d", op, attempt, e.MaxRetries)
			}
			return nil
		} else {
			lastErr = err
			logging.StoreWarn("%s failed on attempt %d/%d: %v", op, attempt, e.MaxRetries, err)
		}
		if attempt < e.MaxRetries {
			time.Sleep(e.BaseDelay * time.Duration(attempt*attempt))
		}
	}

	logging.StoreError("%s exhausted %d attempts: %v", op, e.MaxRetries, lastErr)
	return &OperationError{Op: op, Attempts: e.MaxRetries, Err: lastErr}
}
