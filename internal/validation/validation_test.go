package validation

import (
	"errors"
	"testing"

	"farmstore/internal/models"
)

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if vErr.Field != field {
		t.Errorf("Expected offending field %q, got %q", field, vErr.Field)
	}
}

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name  string
		user  models.UserRecord
		field string // empty means valid
	}{
		{"valid", models.UserRecord{UserID: "u1", Name: "Asha"}, ""},
		{"missing user_id", models.UserRecord{Name: "Asha"}, "user_id"},
		{"missing name", models.UserRecord{UserID: "u1"}, "name"},
		{"updated before created", models.UserRecord{
			UserID: "u1", Name: "Asha",
			CreatedAt: "2024-06-01T00:00:00Z", UpdatedAt: "2024-05-01T00:00:00Z",
		}, "updated_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUser(tt.user)
			if tt.field == "" {
				if err != nil {
					t.Errorf("Expected valid, got %v", err)
				}
				return
			}
			assertField(t, err, tt.field)
		})
	}
}

func TestValidateCrop(t *testing.T) {
	tests := []struct {
		name  string
		crop  models.CropRecord
		field string
	}{
		{"valid", models.CropRecord{UserID: "u1", CropName: "Wheat", Area: 2.5}, ""},
		{"area optional", models.CropRecord{UserID: "u1", CropName: "Wheat"}, ""},
		{"missing user", models.CropRecord{CropName: "Wheat"}, "user_id"},
		{"missing crop name", models.CropRecord{UserID: "u1"}, "crop_name"},
		{"negative area", models.CropRecord{UserID: "u1", CropName: "Wheat", Area: -1}, "area"},
		{"bad status", models.CropRecord{UserID: "u1", CropName: "Wheat", Status: "paused"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCrop(tt.crop)
			if tt.field == "" {
				if err != nil {
					t.Errorf("Expected valid, got %v", err)
				}
				return
			}
			assertField(t, err, tt.field)
		})
	}
}

func TestValidateDiseaseEntryConfidenceBounds(t *testing.T) {
	base := models.DiseaseHistoryEntry{UserID: "u1", CropName: "Wheat", DiseaseName: "Rust"}

	for _, confidence := range []float64{0, 0.5, 1} {
		e := base
		e.Confidence = confidence
		if err := ValidateDiseaseEntry(e); err != nil {
			t.Errorf("Confidence %v should be valid, got %v", confidence, err)
		}
	}
	for _, confidence := range []float64{-0.1, 1.01} {
		e := base
		e.Confidence = confidence
		assertField(t, ValidateDiseaseEntry(e), "confidence")
	}
}

func TestValidateCalendarEvent(t *testing.T) {
	valid := models.CalendarEvent{
		ID: "ev1", Title: "Irrigate", StartDate: "2025-05-01T00:00:00Z",
		Category: "irrigation", CropType: "wheat",
	}
	if err := ValidateCalendarEvent(valid); err != nil {
		t.Fatalf("Expected valid event, got %v", err)
	}

	reminder := valid
	reminder.HasReminder = true
	assertField(t, ValidateCalendarEvent(reminder), "reminder_date")

	reminder.ReminderDate = "2025-04-30T08:00:00Z"
	if err := ValidateCalendarEvent(reminder); err != nil {
		t.Errorf("Reminder with date should be valid, got %v", err)
	}

	backwards := valid
	backwards.EndDate = "2025-04-01T00:00:00Z"
	assertField(t, ValidateCalendarEvent(backwards), "end_date")

	untitled := valid
	untitled.Title = ""
	assertField(t, ValidateCalendarEvent(untitled), "title")
}

func TestValidateCalendarEventsAllOrNothing(t *testing.T) {
	valid := models.CalendarEvent{
		ID: "ev1", Title: "Irrigate", StartDate: "2025-05-01T00:00:00Z",
		Category: "irrigation", CropType: "wheat",
	}
	invalid := valid
	invalid.ID = "ev2"
	invalid.CropType = ""

	err := ValidateCalendarEvents([]models.CalendarEvent{valid, invalid})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected the batch to fail on the invalid element, got %v", err)
	}

	if err := ValidateCalendarEvents(nil); err != nil {
		t.Errorf("Empty batch should be valid, got %v", err)
	}
}
