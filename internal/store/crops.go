package store

import (
	"database/sql"

	"farmstore/internal/logging"
	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// InsertCropRecord persists a new crop record and returns its generated
// ID. Status defaults to active; created_at and updated_at are set to the
// same instant.
func (s *Store) InsertCropRecord(c models.CropRecord) (int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "InsertCropRecord")
	defer timer.Stop()

	if c.Status == "" {
		c.Status = models.CropStatusActive
	}
	if err := validation.ValidateCrop(c); err != nil {
		return 0, err
	}

	now := models.Now()
	var id int64
	err := s.execute("InsertCropRecord", func(db *sql.DB) error {
		res, execErr := db.Exec(
			`INSERT INTO crop_records (user_id, crop_name, planting_date, area, status, notes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.UserID, c.CropName, c.PlantingDate, c.Area, string(c.Status), c.Notes, now, now,
		)
		if execErr != nil {
			return execErr
		}
		id, execErr = res.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, err
	}
	logging.StoreDebug("Inserted crop record %d for user %s (%s)", id, c.UserID, c.CropName)
	return id, nil
}

// GetCropRecords returns all crop records for a user, newest first.
// An empty user ID is an error, not an empty result.
func (s *Store) GetCropRecords(userID string) ([]models.CropRecord, error) {
	if userID == "" {
		return nil, &validation.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	var records []models.CropRecord
	err := s.execute("GetCropRecords", func(db *sql.DB) error {
		rows, queryErr := db.Query(
			`SELECT id, user_id, crop_name, planting_date, area, status, notes, created_at, updated_at
			 FROM crop_records WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
			userID,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			var c models.CropRecord
			var status string
			if scanErr := rows.Scan(&c.ID, &c.UserID, &c.CropName, &c.PlantingDate, &c.Area, &status, &c.Notes, &c.CreatedAt, &c.UpdatedAt); scanErr != nil {
				return scanErr
			}
			c.Status = models.CropStatus(status)
			records = append(records, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateCropRecord replaces the mutable fields of an existing crop
// record. Returns ErrNotFound when no row has the given ID.
func (s *Store) UpdateCropRecord(c models.CropRecord) error {
	timer := logging.StartTimer(logging.CategoryStore, "UpdateCropRecord")
	defer timer.Stop()

	if err := validation.ValidateCrop(c); err != nil {
		return err
	}
	if c.Status == "" {
		c.Status = models.CropStatusActive
	}

	var affected int64
	err := s.execute("UpdateCropRecord", func(db *sql.DB) error {
		res, execErr := db.Exec(
			`UPDATE crop_records
			 SET crop_name = ?, planting_date = ?, area = ?, status = ?, notes = ?, updated_at = ?
			 WHERE id = ?`,
			c.CropName, c.PlantingDate, c.Area, string(c.Status), c.Notes, models.Now(), c.ID,
		)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCropRecord removes a crop record. Disease history rows that
// reference it keep their data with the back-reference nulled. Deleting
// an absent record is a no-op.
func (s *Store) DeleteCropRecord(id int64) error {
	return s.execute("DeleteCropRecord", func(db *sql.DB) error {
		_, err := db.Exec("DELETE FROM crop_records WHERE id = ?", id)
		return err
	})
}
