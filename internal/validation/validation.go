// Package validation checks domain entities against their invariants
// before any write reaches storage. Validators are pure and synchronous;
// they never touch the database.
package validation

import (
	"fmt"

	"farmstore/internal/logging"
	"farmstore/internal/models"
)

// ValidationError names the first field of an entity that violates a
// domain invariant. Always recoverable by the caller correcting input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	logging.ValidationDebug("rejected: field=%s reason=%s", field, reason)
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateUser checks a user record before insert or update.
func ValidateUser(u models.UserRecord) error {
	if u.UserID == "" {
		return invalid("user_id", "must not be empty")
	}
	if u.Name == "" {
		return invalid("name", "must not be empty")
	}
	if u.CreatedAt != "" && u.UpdatedAt != "" && u.UpdatedAt < u.CreatedAt {
		return invalid("updated_at", "must not precede created_at")
	}
	return nil
}

// ValidateCrop checks a crop record before insert or update.
func ValidateCrop(c models.CropRecord) error {
	if c.UserID == "" {
		return invalid("user_id", "must not be empty")
	}
	if c.CropName == "" {
		return invalid("crop_name", "must not be empty")
	}
	if c.Area < 0 {
		return invalid("area", "must be positive when set")
	}
	if c.Status != "" && !c.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", c.Status))
	}
	return nil
}

// ValidateDiseaseEntry checks a disease-detection entry before insert.
func ValidateDiseaseEntry(d models.DiseaseHistoryEntry) error {
	if d.UserID == "" {
		return invalid("user_id", "must not be empty")
	}
	if d.CropName == "" {
		return invalid("crop_name", "must not be empty")
	}
	if d.DiseaseName == "" {
		return invalid("disease_name", "must not be empty")
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return invalid("confidence", "must be within [0,1]")
	}
	return nil
}

// ValidatePrediction checks an ML prediction entry before insert.
func ValidatePrediction(p models.MLPredictionEntry) error {
	if p.UserID == "" {
		return invalid("user_id", "must not be empty")
	}
	if p.PredictionType == "" {
		return invalid("prediction_type", "must not be empty")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return invalid("confidence", "must be within [0,1]")
	}
	return nil
}

// ValidateSetting checks an app setting before upsert.
func ValidateSetting(s models.AppSetting) error {
	if s.Key == "" {
		return invalid("key", "must not be empty")
	}
	return nil
}

// ValidateCalendarEvent checks a calendar event before insert or update.
func ValidateCalendarEvent(e models.CalendarEvent) error {
	if e.ID == "" {
		return invalid("id", "must not be empty")
	}
	if e.Title == "" {
		return invalid("title", "must not be empty")
	}
	if e.Category == "" {
		return invalid("category", "must not be empty")
	}
	if e.CropType == "" {
		return invalid("crop_type", "must not be empty")
	}
	if e.StartDate == "" {
		return invalid("start_date", "must not be empty")
	}
	if e.EndDate != "" && e.EndDate < e.StartDate {
		return invalid("end_date", "must not precede start_date")
	}
	if e.HasReminder && e.ReminderDate == "" {
		return invalid("reminder_date", "required when has_reminder is set")
	}
	return nil
}

// ValidateCalendarEvents checks every event in a batch before any element
// is persisted. The first violation aborts the whole batch.
func ValidateCalendarEvents(events []models.CalendarEvent) error {
	for i, e := range events {
		if err := ValidateCalendarEvent(e); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, e.ID, err)
		}
	}
	return nil
}
