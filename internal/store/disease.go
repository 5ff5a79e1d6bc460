package store

import (
	"database/sql"

	"farmstore/internal/logging"
	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// InsertDiseaseEntry records one disease-detection event and returns its
// generated ID. Entries are immutable afterwards except for appended
// treatment notes.
func (s *Store) InsertDiseaseEntry(d models.DiseaseHistoryEntry) (int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "InsertDiseaseEntry")
	defer timer.Stop()

	if err := validation.ValidateDiseaseEntry(d); err != nil {
		return 0, err
	}

	now := models.Now()
	if d.DetectionDate == "" {
		d.DetectionDate = now
	}

	var id int64
	err := s.execute("InsertDiseaseEntry", func(db *sql.DB) error {
		res, execErr := db.Exec(
			`INSERT INTO disease_history (user_id, crop_id, crop_name, disease_name, confidence, detection_date, treatment_notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.UserID, d.CropID, d.CropName, d.DiseaseName, d.Confidence, d.DetectionDate, d.TreatmentNotes, now,
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
	logging.StoreDebug("Inserted disease entry %d for user %s (%s on %s)", id, d.UserID, d.DiseaseName, d.CropName)
	return id, nil
}

// GetDiseaseHistory returns all detection events for a user, newest
// detection first.
func (s *Store) GetDiseaseHistory(userID string) ([]models.DiseaseHistoryEntry, error) {
	if userID == "" {
		return nil, &validation.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	var entries []models.DiseaseHistoryEntry
	err := s.execute("GetDiseaseHistory", func(db *sql.DB) error {
		rows, queryErr := db.Query(
			`SELECT id, user_id, crop_id, crop_name, disease_name, confidence, detection_date, treatment_notes, created_at
			 FROM disease_history WHERE user_id = ? ORDER BY detection_date DESC, id DESC`,
			userID,
		)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var d models.DiseaseHistoryEntry
			var cropID sql.NullInt64
			if scanErr := rows.Scan(&d.ID, &d.UserID, &cropID, &d.CropName, &d.DiseaseName, &d.Confidence, &d.DetectionDate, &d.TreatmentNotes, &d.CreatedAt); scanErr != nil {
				return scanErr
			}
			if cropID.Valid {
				id := cropID.Int64
				d.CropID = &id
			}
			entries = append(entries, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendTreatmentNotes appends notes to an existing detection entry,
// separated from any prior notes by a newline. Returns ErrNotFound when
// the entry does not exist.
func (s *Store) AppendTreatmentNotes(id int64, notes string) error {
	if notes == "" {
		return &validation.ValidationError{Field: "treatment_notes", Reason: "must not be empty"}
	}

	var affected int64
	err := s.execute("AppendTreatmentNotes", func(db *sql.DB) error {
		res, execErr := db.Exec(
			`UPDATE disease_history
			 SET treatment_notes = CASE WHEN treatment_notes = '' THEN ? ELSE treatment_notes || char(10) || ? END
			 WHERE id = ?`,
			notes, notes, id,
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
