// Package models defines the typed domain entities persisted by farmstore.
// Fields mirror the relational schema one to one; conversion between rows
// and structs happens only at the storage boundary.
package models

import "time"

// TimeLayout is the fixed-width, zero-padded UTC timestamp format used for
// every stored timestamp. Lexicographic comparison of two timestamps in
// this layout equals chronological comparison, which the query layer
// relies on. Do not change the layout without a schema migration.
const TimeLayout = "2006-01-02T15:04:05Z"

// Timestamp formats t in the canonical storage layout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Now returns the current time in the canonical storage layout.
func Now() string {
	return Timestamp(time.Now())
}

// ParseTimestamp parses a canonical storage timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// UserRecord is a farmer profile, created on first successful remote
// authentication.
type UserRecord struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CropStatus enumerates the lifecycle states of a crop record.
type CropStatus string

const (
	CropStatusActive    CropStatus = "active"
	CropStatusCompleted CropStatus = "completed"
	CropStatusFailed    CropStatus = "failed"
)

// Valid reports whether s is a known crop status.
func (s CropStatus) Valid() bool {
	switch s {
	case CropStatusActive, CropStatusCompleted, CropStatusFailed:
		return true
	}
	return false
}

// CropRecord is one logged crop. Area is optional; zero means not
// recorded. Status defaults to active on insert.
type CropRecord struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	CropName     string     `json:"crop_name"`
	PlantingDate string     `json:"planting_date,omitempty"`
	Area         float64    `json:"area,omitempty"`
	Status       CropStatus `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

// DiseaseHistoryEntry records one disease-detection event. Entries are
// immutable after insert except for appended treatment notes. CropID is
// a back-reference to the crop record and is nulled when that crop is
// deleted.
type DiseaseHistoryEntry struct {
	ID             int64   `json:"id"`
	UserID         string  `json:"user_id"`
	CropID         *int64  `json:"crop_id,omitempty"`
	CropName       string  `json:"crop_name"`
	DiseaseName    string  `json:"disease_name"`
	Confidence     float64 `json:"confidence"`
	DetectionDate  string  `json:"detection_date"`
	TreatmentNotes string  `json:"treatment_notes,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// WeatherCacheEntry is one cached network weather snapshot keyed by
// location. A row with ExpiresAt <= now is logically absent.
type WeatherCacheEntry struct {
	Location    string `json:"location"`
	WeatherData string `json:"weather_data"`
	CachedAt    string `json:"cached_at"`
	ExpiresAt   string `json:"expires_at"`
}

// MLPredictionEntry records one inference call. Read-only history, capped
// to the most recent 50 per (user, type) at query time.
type MLPredictionEntry struct {
	ID             int64   `json:"id"`
	UserID         string  `json:"user_id"`
	PredictionType string  `json:"prediction_type"`
	InputData      string  `json:"input_data,omitempty"`
	ResultData     string  `json:"result_data,omitempty"`
	Confidence     float64 `json:"confidence"`
	CreatedAt      string  `json:"created_at"`
}

// AppSetting is a single key/value application setting with upsert
// semantics.
type AppSetting struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

// CalendarEvent is a farming calendar entry. The ID is caller-supplied
// and unique. EndDate and ReminderDate are optional; empty means absent.
type CalendarEvent struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id,omitempty"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date,omitempty"`
	Category     string `json:"category"`
	CropType     string `json:"crop_type"`
	IsCompleted  bool   `json:"is_completed"`
	HasReminder  bool   `json:"has_reminder"`
	ReminderDate string `json:"reminder_date,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
