package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKVPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")

	kv, err := OpenKeyValueStore(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := kv.SetString("language", "sw"); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}
	if err := kv.SetInt("sync_interval_min", 15); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	if err := kv.SetBool("notifications", true); err != nil {
		t.Fatalf("SetBool failed: %v", err)
	}
	if err := kv.SetStringList("favorite_crops", []string{"wheat", "maize"}); err != nil {
		t.Fatalf("SetStringList failed: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenKeyValueStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	lang, found, err := reopened.GetString("language")
	if err != nil || !found || lang != "sw" {
		t.Errorf("Expected language=sw, got %q (found=%v err=%v)", lang, found, err)
	}
	interval, found, _ := reopened.GetInt("sync_interval_min")
	if !found || interval != 15 {
		t.Errorf("Expected sync_interval_min=15, got %d (found=%v)", interval, found)
	}
	crops, found, _ := reopened.GetStringList("favorite_crops")
	if !found || len(crops) != 2 || crops[0] != "wheat" {
		t.Errorf("Expected favorite crops to survive reopen, got %v", crops)
	}
}

func TestKVAbsentKeyIsNotAnError(t *testing.T) {
	kv, err := OpenKeyValueStore(filepath.Join(t.TempDir(), "kv.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, found, err := kv.GetString("missing")
	if err != nil {
		t.Errorf("Absent key must not error, got %v", err)
	}
	if found {
		t.Error("Expected found=false for absent key")
	}
}

func TestKVCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	kv, err := OpenKeyValueStore(path)
	if err != nil {
		t.Fatalf("Corrupt file must not fail open: %v", err)
	}
	if kv.Len() != 0 {
		t.Errorf("Expected empty store after corrupt file, got %d keys", kv.Len())
	}
	if err := kv.SetString("k", "v"); err != nil {
		t.Errorf("Store must be writable after recovering from corruption: %v", err)
	}
}

func TestKVDeleteAndClear(t *testing.T) {
	kv, err := OpenKeyValueStore(filepath.Join(t.TempDir(), "kv.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := kv.SetString("a", "1"); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}
	if err := kv.SetString("b", "2"); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}

	if err := kv.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := kv.Delete("a"); err != nil {
		t.Errorf("Deleting an absent key must be a no-op, got %v", err)
	}
	if kv.Len() != 1 {
		t.Errorf("Expected 1 key after delete, got %d", kv.Len())
	}

	if err := kv.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if kv.Len() != 0 {
		t.Errorf("Expected empty store after Clear, got %d keys", kv.Len())
	}
}

func TestKVJSONBlobRoundtrip(t *testing.T) {
	kv, err := OpenKeyValueStore(filepath.Join(t.TempDir(), "kv.json"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	type snapshot struct {
		Version int      `json:"version"`
		Tags    []string `json:"tags"`
	}
	in := snapshot{Version: 3, Tags: []string{"a", "b"}}
	if err := kv.SetJSON("snapshot", in); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	var out snapshot
	found, err := kv.GetJSON("snapshot", &out)
	if err != nil || !found {
		t.Fatalf("GetJSON failed: found=%v err=%v", found, err)
	}
	if out.Version != 3 || len(out.Tags) != 2 {
		t.Errorf("Roundtrip mismatch: %+v", out)
	}
}
