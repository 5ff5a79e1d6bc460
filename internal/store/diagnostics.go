package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"farmstore/internal/logging"
	"farmstore/internal/models"
)

// domainTables lists every relational table owned by the store, children
// before parents so wipes can delete in order.
var domainTables = []string{
	"disease_history",
	"crop_records",
	"ml_predictions",
	"calendar_events",
	"weather_cache",
	"app_settings",
	"users",
}

// StorageStats aggregates sizes and counts for diagnostics. Fields
// degrade independently: a table that cannot be counted is simply absent
// from TableCounts.
type StorageStats struct {
	TableCounts       map[string]int64 `json:"table_counts"`
	DatabaseSizeBytes int64            `json:"database_size_bytes"`
	KVSizeBytes       int64            `json:"kv_size_bytes"`
	KVKeys            int              `json:"kv_keys"`
	SchemaVersion     int              `json:"schema_version"`
}

// GetStorageStats returns aggregate table counts and on-disk sizes.
func (s *Store) GetStorageStats() (*StorageStats, error) {
	timer := logging.StartTimer(logging.CategoryStore, "GetStorageStats")
	defer timer.Stop()

	db, kv, err := s.handles()
	if err != nil {
		return nil, err
	}

	stats := &StorageStats{TableCounts: make(map[string]int64)}
	for _, table := range domainTables {
		var count int64
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			logging.StoreDebug("Table %s count failed: %v", table, err)
			continue
		}
		stats.TableCounts[table] = count
	}

	stats.SchemaVersion = GetSchemaVersion(db)
	stats.KVKeys = kv.Len()
	stats.KVSizeBytes = kv.FileSize()
	if !isMemoryPath(s.cfg.DatabasePath) {
		if info, statErr := os.Stat(s.cfg.DatabasePath); statErr == nil {
			stats.DatabaseSizeBytes = info.Size()
		}
	}

	return stats, nil
}

// PerformHealthCheck runs a write/read/delete smoke test against both
// engines. A healthy store returns nil.
func (s *Store) PerformHealthCheck() error {
	timer := logging.StartTimer(logging.CategoryStore, "PerformHealthCheck")
	defer timer.Stop()

	_, kv, err := s.handles()
	if err != nil {
		return err
	}

	probe := "health_check_" + uuid.NewString()

	if err := s.SetAppSetting(probe, "ok"); err != nil {
		return fmt.Errorf("health check write failed: %w", err)
	}
	setting, found, err := s.GetAppSetting(probe)
	if err != nil {
		return fmt.Errorf("health check read failed: %w", err)
	}
	if !found || setting.Value != "ok" {
		return fmt.Errorf("health check read returned wrong value")
	}
	if err := s.DeleteAppSetting(probe); err != nil {
		return fmt.Errorf("health check cleanup failed: %w", err)
	}

	if err := kv.SetString(probe, "ok"); err != nil {
		return fmt.Errorf("health check kv write failed: %w", err)
	}
	value, found, err := kv.GetString(probe)
	if err != nil || !found || value != "ok" {
		return fmt.Errorf("health check kv read failed: found=%v err=%v", found, err)
	}
	if err := kv.Delete(probe); err != nil {
		return fmt.Errorf("health check kv cleanup failed: %w", err)
	}

	logging.Store("Health check passed")
	return nil
}

// ExportData aggregates a read-only snapshot across tables for backup.
// Sub-exports degrade independently: a failing section yields an empty
// value for its key rather than failing the whole export. An empty
// userID exports calendar events and settings only.
func (s *Store) ExportData(userID string) (map[string]interface{}, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ExportData")
	defer timer.Stop()

	if _, _, err := s.handles(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	export := map[string]interface{}{
		"exported_at":    models.Now(),
		"schema_version": CurrentSchemaVersion,
	}
	put := func(key string, value interface{}, err error) {
		if err != nil {
			logging.StoreWarn("Export of %s degraded to empty: %v", key, err)
			value = nil
		}
		mu.Lock()
		export[key] = value
		mu.Unlock()
	}

	var g errgroup.Group
	if userID != "" {
		g.Go(func() error {
			user, found, err := s.GetUser(userID)
			if !found {
				put("user", nil, err)
				return nil
			}
			put("user", user, err)
			return nil
		})
		g.Go(func() error {
			records, err := s.GetCropRecords(userID)
			put("crop_records", records, err)
			return nil
		})
		g.Go(func() error {
			entries, err := s.GetDiseaseHistory(userID)
			put("disease_history", entries, err)
			return nil
		})
		g.Go(func() error {
			predictions, err := s.GetPredictions(userID, "")
			put("ml_predictions", predictions, err)
			return nil
		})
	}
	g.Go(func() error {
		events, err := s.GetCalendarEvents(userID)
		put("calendar_events", events, err)
		return nil
	})
	g.Go(func() error {
		settings, err := s.GetAllAppSettings()
		put("app_settings", settings, err)
		return nil
	})

	// Sub-exports never return errors; they degrade in place.
	_ = g.Wait()

	return export, nil
}

// ClearAllData deletes every row from every table inside one
// transaction; used for account deletion and logout-and-wipe. When
// includePreferences is set the key-value store is wiped too, otherwise
// only the derived calendar list blob is dropped.
func (s *Store) ClearAllData(includePreferences bool) error {
	timer := logging.StartTimer(logging.CategoryStore, "ClearAllData")
	defer timer.Stop()

	_, kv, err := s.handles()
	if err != nil {
		return err
	}

	err = s.execute("ClearAllData", func(db *sql.DB) error {
		tx, txErr := db.Begin()
		if txErr != nil {
			return txErr
		}
		defer tx.Rollback()

		for _, table := range domainTables {
			if _, execErr := tx.Exec("DELETE FROM " + table); execErr != nil {
				return execErr
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	if includePreferences {
		if err := kv.Clear(); err != nil {
			return fmt.Errorf("failed to clear key-value store: %w", err)
		}
	} else if err := kv.Delete(CalendarListKey); err != nil {
		logging.KVDebug("Failed to drop calendar list blob: %v", err)
	}

	logging.Store("All data cleared (includePreferences=%v)", includePreferences)
	return nil
}

// VacuumDatabase reclaims disk space after large deletes. Optional
// maintenance; safe to skip.
func (s *Store) VacuumDatabase() error {
	timer := logging.StartTimer(logging.CategoryStore, "VacuumDatabase")
	defer timer.Stop()

	return s.execute("VacuumDatabase", func(db *sql.DB) error {
		_, err := db.Exec("VACUUM")
		return err
	})
}
