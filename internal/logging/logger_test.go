package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDisabledLoggerIsNoOp(t *testing.T) {
	if err := Init(Options{Enabled: false}); err != nil {
		t.Fatalf("Init with logging disabled failed: %v", err)
	}
	defer Sync()

	// Every helper must be safe to call with logging off.
	log := Get(CategoryStore)
	log.Debug("debug %s", "message")
	log.Info("info")
	log.Warn("warn %d", 1)
	log.Error("error: %v", os.ErrNotExist)
	Store("helper path")
	Migration("helper path")
}

func TestEnabledLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Options{Enabled: true, Dir: dir, Level: "debug"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Store("store message %d", 42)
	CacheDebug("cache detail")
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("Expected a log file in the log directory")
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected log output to be written")
	}
}

func TestTimerReportsDuration(t *testing.T) {
	if err := Init(Options{Enabled: false}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	timer := StartTimer(CategoryStore, "probe")
	time.Sleep(time.Millisecond)
	if d := timer.Stop(); d <= 0 {
		t.Errorf("Expected positive duration, got %v", d)
	}

	timer = StartTimer(CategoryStore, "fast probe")
	if d := timer.StopWithThreshold(time.Hour); d < 0 {
		t.Errorf("Expected non-negative duration, got %v", d)
	}
}
