package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"farmstore/internal/logging"
)

// KeyValueStore is a flat, durable map from string keys to scalar values
// and JSON blobs, backed by a single JSON file. Every write is persisted
// atomically (temp file + rename) before returning, so a crash never
// leaves a half-written file behind.
type KeyValueStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]json.RawMessage
}

// OpenKeyValueStore loads (or creates) the key-value store at path.
// A corrupt file is discarded and the store starts fresh rather than
// failing initialization.
func OpenKeyValueStore(path string) (*KeyValueStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	kv := &KeyValueStore{
		path:    path,
		entries: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.KVDebug("No key-value file at %s, starting fresh", path)
			return kv, nil
		}
		return nil, fmt.Errorf("failed to read key-value store: %w", err)
	}
	if err := json.Unmarshal(data, &kv.entries); err != nil {
		logging.Get(logging.CategoryKV).Warn("Corrupt key-value file %s, starting fresh: %v", path, err)
		kv.entries = make(map[string]json.RawMessage)
	}
	logging.KV("Key-value store loaded: %d keys", len(kv.entries))
	return kv, nil
}

// save writes the map to disk atomically. Caller holds mu.
func (kv *KeyValueStore) save() error {
	data, err := json.MarshalIndent(kv.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key-value store: %w", err)
	}

	tmp := kv.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write key-value store: %w", err)
	}
	if err := os.Rename(tmp, kv.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace key-value store: %w", err)
	}
	return nil
}

// set marshals v under key and persists.
func (kv *KeyValueStore) set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.entries[key] = data
	if err := kv.save(); err != nil {
		logging.Get(logging.CategoryKV).Error("Failed to persist key %q: %v", key, err)
		return err
	}
	logging.KVDebug("Set key %q (%d bytes)", key, len(data))
	return nil
}

// get unmarshals the value under key into out. The bool reports presence;
// a value that cannot unmarshal into out is an error.
func (kv *KeyValueStore) get(key string, out interface{}) (bool, error) {
	kv.mu.RLock()
	data, ok := kv.entries[key]
	kv.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("failed to decode value for %q: %w", key, err)
	}
	return true, nil
}

// SetString stores a string value.
func (kv *KeyValueStore) SetString(key, value string) error { return kv.set(key, value) }

// GetString retrieves a string value.
func (kv *KeyValueStore) GetString(key string) (string, bool, error) {
	var v string
	ok, err := kv.get(key, &v)
	return v, ok, err
}

// SetInt stores an integer value.
func (kv *KeyValueStore) SetInt(key string, value int64) error { return kv.set(key, value) }

// GetInt retrieves an integer value.
func (kv *KeyValueStore) GetInt(key string) (int64, bool, error) {
	var v int64
	ok, err := kv.get(key, &v)
	return v, ok, err
}

// SetFloat stores a float value.
func (kv *KeyValueStore) SetFloat(key string, value float64) error { return kv.set(key, value) }

// GetFloat retrieves a float value.
func (kv *KeyValueStore) GetFloat(key string) (float64, bool, error) {
	var v float64
	ok, err := kv.get(key, &v)
	return v, ok, err
}

// SetBool stores a boolean value.
func (kv *KeyValueStore) SetBool(key string, value bool) error { return kv.set(key, value) }

// GetBool retrieves a boolean value.
func (kv *KeyValueStore) GetBool(key string) (bool, bool, error) {
	var v bool
	ok, err := kv.get(key, &v)
	return v, ok, err
}

// SetStringList stores a list of strings.
func (kv *KeyValueStore) SetStringList(key string, value []string) error { return kv.set(key, value) }

// GetStringList retrieves a list of strings.
func (kv *KeyValueStore) GetStringList(key string) ([]string, bool, error) {
	var v []string
	ok, err := kv.get(key, &v)
	return v, ok, err
}

// SetJSON stores an arbitrary JSON-serializable value.
func (kv *KeyValueStore) SetJSON(key string, value interface{}) error { return kv.set(key, value) }

// GetJSON retrieves an arbitrary JSON value into out.
func (kv *KeyValueStore) GetJSON(key string, out interface{}) (bool, error) {
	return kv.get(key, out)
}

// Delete removes a key. Removing an absent key is a no-op.
func (kv *KeyValueStore) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if _, ok := kv.entries[key]; !ok {
		return nil
	}
	delete(kv.entries, key)
	return kv.save()
}

// Clear removes every key.
func (kv *KeyValueStore) Clear() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.entries = make(map[string]json.RawMessage)
	logging.KV("Key-value store cleared")
	return kv.save()
}

// Len returns the number of stored keys.
func (kv *KeyValueStore) Len() int {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return len(kv.entries)
}

// FileSize returns the on-disk size of the store in bytes, 0 if the file
// does not exist yet.
func (kv *KeyValueStore) FileSize() int64 {
	info, err := os.Stat(kv.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Close flushes the store. Writes are already durable per call, so this
// is a final best-effort save.
func (kv *KeyValueStore) Close() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.save()
}
