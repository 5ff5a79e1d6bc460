package store

import (
	"database/sql"
	"errors"

	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// SetAppSetting writes a key/value setting with upsert semantics: the
// write always replaces.
func (s *Store) SetAppSetting(key, value string) error {
	if err := validation.ValidateSetting(models.AppSetting{Key: key, Value: value}); err != nil {
		return err
	}

	return s.execute("SetAppSetting", func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, models.Now(),
		)
		return err
	})
}

// GetAppSetting looks up one setting. Absence is reported via the bool.
func (s *Store) GetAppSetting(key string) (models.AppSetting, bool, error) {
	var setting models.AppSetting
	if key == "" {
		return setting, false, &validation.ValidationError{Field: "key", Reason: "must not be empty"}
	}

	found := false
	err := s.execute("GetAppSetting", func(db *sql.DB) error {
		row := db.QueryRow("SELECT key, value, updated_at FROM app_settings WHERE key = ?", key)
		scanErr := row.Scan(&setting.Key, &setting.Value, &setting.UpdatedAt)
		if errors.Is(scanErr, sql.ErrNoRows) {
			found = false
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		found = true
		return nil
	})
	return setting, found, err
}

// DeleteAppSetting removes one setting. Removing an absent key is a
// no-op.
func (s *Store) DeleteAppSetting(key string) error {
	return s.execute("DeleteAppSetting", func(db *sql.DB) error {
		_, err := db.Exec("DELETE FROM app_settings WHERE key = ?", key)
		return err
	})
}

// GetAllAppSettings returns every stored setting, ordered by key.
func (s *Store) GetAllAppSettings() ([]models.AppSetting, error) {
	var settings []models.AppSetting
	err := s.execute("GetAllAppSettings", func(db *sql.DB) error {
		rows, queryErr := db.Query("SELECT key, value, updated_at FROM app_settings ORDER BY key")
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		settings = settings[:0]
		for rows.Next() {
			var setting models.AppSetting
			if scanErr := rows.Scan(&setting.Key, &setting.Value, &setting.UpdatedAt); scanErr != nil {
				return scanErr
			}
			settings = append(settings, setting)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
