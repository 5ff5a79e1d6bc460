package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestExecuteRetriesUntilExhausted(t *testing.T) {
	exec := &OperationExecutor{MaxRetries: 3, BaseDelay: 0}

	attempts := 0
	err := exec.Execute("AlwaysFails", func() error {
		attempts++
		return fmt.Errorf("disk I/O error")
	})

	if attempts != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", attempts)
	}

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Expected OperationError, got %T: %v", err, err)
	}
	if opErr.Attempts != 3 {
		t.Errorf("Expected Attempts=3, got %d", opErr.Attempts)
	}
	if opErr.Op != "AlwaysFails" {
		t.Errorf("Expected Op=AlwaysFails, got %q", opErr.Op)
	}
}

func TestExecuteSucceedsAfterTransientFailure(t *testing.T) {
	exec := &OperationExecutor{MaxRetries: 3, BaseDelay: 0}

	attempts := 0
	err := exec.Execute("FlakyOnce", func() error {
		attempts++
		if attempts < 2 {
			return fmt.Errorf("database is locked")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteWrapsLastError(t *testing.T) {
	exec := &OperationExecutor{MaxRetries: 2, BaseDelay: 0}

	sentinel := errors.New("last failure")
	attempts := 0
	err := exec.Execute("Wraps", func() error {
		attempts++
		if attempts == 2 {
			return sentinel
		}
		return fmt.Errorf("earlier failure")
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("Expected wrapped last error, got %v", err)
	}
}

func TestNewOperationExecutorDefaults(t *testing.T) {
	exec := NewOperationExecutor(0, -1)
	if exec.MaxRetries != 3 {
		t.Errorf("Expected default MaxRetries=3, got %d", exec.MaxRetries)
	}
	if exec.BaseDelay.Milliseconds() != 100 {
		t.Errorf("Expected default BaseDelay=100ms, got %v", exec.BaseDelay)
	}
}
