package store

import (
	"database/sql"
	"errors"

	"farmstore/internal/logging"
	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// UpsertUser inserts a user profile or replaces its mutable fields.
// CreatedAt is preserved on update; UpdatedAt is always refreshed.
func (s *Store) UpsertUser(u models.UserRecord) error {
	timer := logging.StartTimer(logging.CategoryStore, "UpsertUser")
	defer timer.Stop()

	if err := validation.ValidateUser(u); err != nil {
		return err
	}

	now := models.Now()
	if u.CreatedAt == "" {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	return s.execute("UpsertUser", func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO users (user_id, name, phone, location, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
			 name = excluded.name,
			 phone = excluded.phone,
			 location = excluded.location,
			 updated_at = excluded.updated_at`,
			u.UserID, u.Name, u.Phone, u.Location, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
}

// GetUser looks up a user profile. Absence is reported via the bool, not
// an error.
func (s *Store) GetUser(userID string) (models.UserRecord, bool, error) {
	var u models.UserRecord
	if userID == "" {
		return u, false, &validation.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	found := false
	err := s.execute("GetUser", func(db *sql.DB) error {
		row := db.QueryRow(
			"SELECT user_id, name, phone, location, created_at, updated_at FROM users WHERE user_id = ?",
			userID,
		)
		scanErr := row.Scan(&u.UserID, &u.Name, &u.Phone, &u.Location, &u.CreatedAt, &u.UpdatedAt)
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
	return u, found, err
}

// DeleteUser removes a user profile and, via foreign keys, every
// dependent crop, disease, prediction and calendar row. Deleting an
// absent user is a no-op.
func (s *Store) DeleteUser(userID string) error {
	timer := logging.StartTimer(logging.CategoryStore, "DeleteUser")
	defer timer.Stop()

	if userID == "" {
		return &validation.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	err := s.execute("DeleteUser", func(db *sql.DB) error {
		_, execErr := db.Exec("DELETE FROM users WHERE user_id = ?", userID)
		return execErr
	})
	if err != nil {
		return err
	}
	logging.Store("Deleted user %s (dependent rows cascaded)", userID)

	// The cascade may have removed calendar rows; refresh the derived list.
	s.refreshCalendarList()
	return nil
}
