package store

import (
	"database/sql"

	"farmstore/internal/logging"
	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// maxPredictionHistory caps reads of inference history per (user, type).
const maxPredictionHistory = 50

// InsertPrediction records one ML inference call and returns its
// generated ID. Prediction history is read-only afterwards.
func (s *Store) InsertPrediction(p models.MLPredictionEntry) (int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "InsertPrediction")
	defer timer.Stop()

	if err := validation.ValidatePrediction(p); err != nil {
		return 0, err
	}

	var id int64
	err := s.execute("InsertPrediction", func(db *sql.DB) error {
		res, execErr := db.Exec(
			`INSERT INTO ml_predictions (user_id, prediction_type, input_data, result_data, confidence, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.UserID, p.PredictionType, p.InputData, p.ResultData, p.Confidence, models.Now(),
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
	logging.StoreDebug("Inserted %s prediction %d for user %s", p.PredictionType, id, p.UserID)
	return id, nil
}

// GetPredictions returns the most recent inference entries for a user,
// newest first, capped at 50. An empty predictionType matches all types.
func (s *Store) GetPredictions(userID, predictionType string) ([]models.MLPredictionEntry, error) {
	if userID == "" {
		return nil, &validation.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}

	query := `SELECT id, user_id, prediction_type, input_data, result_data, confidence, created_at
	          FROM ml_predictions WHERE user_id = ?`
	args := []interface{}{userID}
	if predictionType != "" {
		query += " AND prediction_type = ?"
		args = append(args, predictionType)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, maxPredictionHistory)

	var entries []models.MLPredictionEntry
	err := s.execute("GetPredictions", func(db *sql.DB) error {
		rows, queryErr := db.Query(query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var p models.MLPredictionEntry
			if scanErr := rows.Scan(&p.ID, &p.UserID, &p.PredictionType, &p.InputData, &p.ResultData, &p.Confidence, &p.CreatedAt); scanErr != nil {
				return scanErr
			}
			entries = append(entries, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
