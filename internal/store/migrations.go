package store

// Schema migrations for the farmstore relational database.
// Migrations are forward-only and idempotent: every step uses
// IF NOT EXISTS / add-column-if-absent guards so an interrupted run can
// be replayed safely. A step that fails is logged and recorded in the
// report but does not abort initialization; only an unopenable database
// or a schema newer than this build is fatal.

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"farmstore/internal/logging"
)

// Schema versions:
// v1: users, crop_records, disease_history, weather_cache, app_settings
// v2: ml_predictions table for on-device inference history
// v3: calendar_events table with (user_id, start_date) index
// v4: crop notes + treatment notes columns, remaining secondary indices
const CurrentSchemaVersion = 4

// MigrationReport records what a migration run did, including per-step
// warnings for steps that were swallowed rather than fatal.
type MigrationReport struct {
	FromVersion  int
	ToVersion    int
	StepsApplied int
	BackupPath   string
	Warnings     []string
	Duration     time.Duration
}

// migrationStep is one upgrade step, keyed by the version it produces.
type migrationStep struct {
	Version int
	Name    string
	Apply   func(db *sql.DB) error
}

var migrationSteps = []migrationStep{
	{Version: 1, Name: "base schema", Apply: migrateV1BaseSchema},
	{Version: 2, Name: "ml predictions", Apply: migrateV2Predictions},
	{Version: 3, Name: "calendar events", Apply: migrateV3Calendar},
	{Version: 4, Name: "notes columns and indices", Apply: migrateV4NotesAndIndices},
}

// RunMigrations brings db from its recorded version up to targetVersion,
// returning a report. dbPath is used for the best-effort pre-migration
// backup of existing databases; pass an in-memory path to skip it.
func RunMigrations(db *sql.DB, dbPath string, targetVersion int) (*MigrationReport, error) {
	timer := logging.StartTimer(logging.CategoryMigration, "RunMigrations")
	defer timer.Stop()

	start := time.Now()
	report := &MigrationReport{ToVersion: targetVersion}

	current := GetSchemaVersion(db)
	report.FromVersion = current
	logging.Migration("Database at version %d, target version %d", current, targetVersion)

	if current > targetVersion {
		logging.Get(logging.CategoryMigration).Error("Schema version %d exceeds target %d", current, targetVersion)
		return report, fmt.Errorf("%w: stored=%d target=%d", ErrSchemaTooNew, current, targetVersion)
	}
	if current == targetVersion {
		logging.Migration("Database already at version %d, no migration needed", current)
		report.Duration = time.Since(start)
		return report, nil
	}

	// Back up existing databases before touching them. Best effort: a
	// fresh or in-memory database has nothing worth copying.
	if current > 0 && !isMemoryPath(dbPath) {
		if backupPath, err := createBackup(dbPath); err != nil {
			logging.MigrationWarn("Pre-migration backup failed: %v", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("backup failed: %v", err))
		} else {
			report.BackupPath = backupPath
		}
	}

	for _, step := range migrationSteps {
		if step.Version <= current || step.Version > targetVersion {
			continue
		}
		logging.Migration("Applying migration v%d: %s", step.Version, step.Name)
		if err := step.Apply(db); err != nil {
			// Swallowed: the step may have half-applied on a previous
			// interrupted run. Recorded so tests and diagnostics can see it.
			logging.MigrationWarn("Migration v%d (%s) failed: %v", step.Version, step.Name, err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("v%d %s: %v", step.Version, step.Name, err))
			continue
		}
		report.StepsApplied++
		logging.MigrationDebug("Migration v%d applied", step.Version)
	}

	if err := setSchemaVersion(db, targetVersion); err != nil {
		logging.MigrationWarn("Failed to record schema version: %v", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("record version: %v", err))
	}

	report.Duration = time.Since(start)
	logging.Migration("Migration complete: v%d -> v%d in %v (applied=%d, warnings=%d)",
		current, targetVersion, report.Duration, report.StepsApplied, len(report.Warnings))
	return report, nil
}

// GetSchemaVersion returns the stored schema version, 0 for a fresh
// database.
func GetSchemaVersion(db *sql.DB) int {
	if !tableExists(db, "schema_versions") {
		return 0
	}
	var version int
	query := "SELECT version FROM schema_versions ORDER BY id DESC LIMIT 1"
	if err := db.QueryRow(query).Scan(&version); err != nil {
		logging.MigrationDebug("schema_versions exists but no version record: %v", err)
		return 0
	}
	return version
}

// setSchemaVersion records a new schema version.
func setSchemaVersion(db *sql.DB, version int) error {
	createTable := `
	CREATE TABLE IF NOT EXISTS schema_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		description TEXT
	)`
	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}
	_, err := db.Exec(
		"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
		version, fmt.Sprintf("Migrated to schema version %d", version),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logging.Migration("Schema version set to %d", version)
	return nil
}

// createBackup copies the database file aside before a migration run.
func createBackup(dbPath string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	backupPath := dbPath + ".backup_" + timestamp

	src, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	bytesCopied, err := io.Copy(dst, src)
	if err != nil {
		return "", fmt.Errorf("failed to copy database to backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync backup to disk: %w", err)
	}

	logging.Migration("Database backup created: %s (%d bytes)", backupPath, bytesCopied)
	return backupPath, nil
}

// migrateV1BaseSchema creates the original five tables.
func migrateV1BaseSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS crop_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		crop_name TEXT NOT NULL,
		planting_date TEXT NOT NULL DEFAULT '',
		area REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','completed','failed')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_crops_user ON crop_records(user_id);

	CREATE TABLE IF NOT EXISTS disease_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		crop_id INTEGER REFERENCES crop_records(id) ON DELETE SET NULL,
		crop_name TEXT NOT NULL,
		disease_name TEXT NOT NULL,
		confidence REAL NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
		detection_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_disease_user ON disease_history(user_id);

	CREATE TABLE IF NOT EXISTS weather_cache (
		location TEXT PRIMARY KEY,
		weather_data TEXT NOT NULL,
		cached_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS app_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create base schema: %w", err)
	}
	return nil
}

// migrateV2Predictions adds the on-device inference history table.
func migrateV2Predictions(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ml_predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		prediction_type TEXT NOT NULL,
		input_data TEXT NOT NULL DEFAULT '',
		result_data TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0 CHECK (confidence >= 0 AND confidence <= 1),
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_user_type ON ml_predictions(user_id, prediction_type);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create ml_predictions: %w", err)
	}
	return nil
}

// migrateV3Calendar adds the queryable calendar events table.
func migrateV3Calendar(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		user_id TEXT REFERENCES users(user_id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		crop_type TEXT NOT NULL,
		is_completed INTEGER NOT NULL DEFAULT 0,
		has_reminder INTEGER NOT NULL DEFAULT 0,
		reminder_date TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_calendar_user_start ON calendar_events(user_id, start_date);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create calendar_events: %w", err)
	}
	return nil
}

// migrateV4NotesAndIndices adds the notes columns and the remaining
// secondary indices used by the query layer.
func migrateV4NotesAndIndices(db *sql.DB) error {
	columns := []struct {
		table, column, def string
	}{
		{"crop_records", "notes", "TEXT NOT NULL DEFAULT ''"},
		{"disease_history", "treatment_notes", "TEXT NOT NULL DEFAULT ''"},
	}
	for _, c := range columns {
		if columnExists(db, c.table, c.column) {
			logging.MigrationDebug("Column already exists, skipping: %s.%s", c.table, c.column)
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.column, c.def)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to add %s.%s: %w", c.table, c.column, err)
		}
		logging.Migration("Migration applied: added %s.%s", c.table, c.column)
	}

	indices := `
	CREATE INDEX IF NOT EXISTS idx_crops_user_status ON crop_records(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_weather_expiry ON weather_cache(location, expires_at);
	`
	if _, err := db.Exec(indices); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}
	return nil
}
