package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"farmstore/internal/logging"
	"farmstore/internal/models"
	"farmstore/internal/validation"
)

// CalendarListKey is the fixed key-value store key holding the
// JSON-serialized calendar event list. The relational table is the
// source of truth; the list is a derived cache rewritten after every
// successful calendar mutation and is only eventually consistent with
// the table (the two engines share no transaction).
const CalendarListKey = "calendar_events"

// NewEventID generates a unique calendar event ID for callers that do
// not bring their own.
func NewEventID() string {
	return uuid.NewString()
}

// AddCalendarEvent validates and inserts one calendar event. The event
// ID is caller-supplied and must be unique.
func (s *Store) AddCalendarEvent(e models.CalendarEvent) error {
	timer := logging.StartTimer(logging.CategoryStore, "AddCalendarEvent")
	defer timer.Stop()

	if err := validation.ValidateCalendarEvent(e); err != nil {
		return err
	}

	now := models.Now()
	err := s.execute("AddCalendarEvent", func(db *sql.DB) error {
		_, execErr := db.Exec(
			`INSERT INTO calendar_events (id, user_id, title, description, start_date, end_date, category, crop_type, is_completed, has_reminder, reminder_date, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, nullIfEmpty(e.UserID), e.Title, e.Description, e.StartDate, e.EndDate,
			e.Category, e.CropType, boolToInt(e.IsCompleted), boolToInt(e.HasReminder), e.ReminderDate, now, now,
		)
		return execErr
	})
	if err != nil {
		return err
	}

	s.refreshCalendarList()
	return nil
}

// UpdateCalendarEvent replaces the mutable fields of an existing event.
// Returns ErrNotFound when no event has the given ID.
func (s *Store) UpdateCalendarEvent(e models.CalendarEvent) error {
	timer := logging.StartTimer(logging.CategoryStore, "UpdateCalendarEvent")
	defer timer.Stop()

	if err := validation.ValidateCalendarEvent(e); err != nil {
		return err
	}

	var affected int64
	err := s.execute("UpdateCalendarEvent", func(db *sql.DB) error {
		res, execErr := db.Exec(
			`UPDATE calendar_events
			 SET user_id = ?, title = ?, description = ?, start_date = ?, end_date = ?, category = ?,
			     crop_type = ?, is_completed = ?, has_reminder = ?, reminder_date = ?, updated_at = ?
			 WHERE id = ?`,
			nullIfEmpty(e.UserID), e.Title, e.Description, e.StartDate, e.EndDate, e.Category,
			e.CropType, boolToInt(e.IsCompleted), boolToInt(e.HasReminder), e.ReminderDate, models.Now(), e.ID,
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

	s.refreshCalendarList()
	return nil
}

// DeleteCalendarEvent removes one event. Deleting an absent event is a
// no-op.
func (s *Store) DeleteCalendarEvent(id string) error {
	err := s.execute("DeleteCalendarEvent", func(db *sql.DB) error {
		_, execErr := db.Exec("DELETE FROM calendar_events WHERE id = ?", id)
		return execErr
	})
	if err != nil {
		return err
	}

	s.refreshCalendarList()
	return nil
}

// BatchInsertCalendarEvents validates every event, then inserts all of
// them inside one transaction. Partial success is not observable: either
// every row commits or none do.
func (s *Store) BatchInsertCalendarEvents(events []models.CalendarEvent) error {
	timer := logging.StartTimer(logging.CategoryStore, "BatchInsertCalendarEvents")
	defer timer.Stop()

	if err := validation.ValidateCalendarEvents(events); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	now := models.Now()
	err := s.execute("BatchInsertCalendarEvents", func(db *sql.DB) error {
		tx, txErr := db.Begin()
		if txErr != nil {
			return txErr
		}
		defer tx.Rollback()

		stmt, prepErr := tx.Prepare(
			`INSERT INTO calendar_events (id, user_id, title, description, start_date, end_date, category, crop_type, is_completed, has_reminder, reminder_date, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		)
		if prepErr != nil {
			return prepErr
		}
		defer stmt.Close()

		for _, e := range events {
			if _, execErr := stmt.Exec(
				e.ID, nullIfEmpty(e.UserID), e.Title, e.Description, e.StartDate, e.EndDate,
				e.Category, e.CropType, boolToInt(e.IsCompleted), boolToInt(e.HasReminder), e.ReminderDate, now, now,
			); execErr != nil {
				return execErr
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}
	logging.Store("Batch inserted %d calendar events", len(events))

	s.refreshCalendarList()
	return nil
}

// GetCalendarEvents returns events for a user ordered by start date; an
// empty userID returns every event.
func (s *Store) GetCalendarEvents(userID string) ([]models.CalendarEvent, error) {
	query := calendarSelect + " ORDER BY start_date ASC, id ASC"
	var args []interface{}
	if userID != "" {
		query = calendarSelect + " WHERE user_id = ? ORDER BY start_date ASC, id ASC"
		args = append(args, userID)
	}
	return s.queryCalendarEvents("GetCalendarEvents", query, args...)
}

// GetUpcomingEvents returns incomplete events starting within
// [now, now+days], soonest first. A negative days is an error.
func (s *Store) GetUpcomingEvents(userID string, days int) ([]models.CalendarEvent, error) {
	if days < 0 {
		return nil, &validation.ValidationError{Field: "days", Reason: "must not be negative"}
	}

	now := time.Now()
	from := models.Timestamp(now)
	to := models.Timestamp(now.Add(time.Duration(days) * 24 * time.Hour))

	query := calendarSelect + " WHERE is_completed = 0 AND start_date >= ? AND start_date <= ?"
	args := []interface{}{from, to}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY start_date ASC, id ASC"

	return s.queryCalendarEvents("GetUpcomingEvents", query, args...)
}

// GetCalendarEventList serves the denormalized list from the key-value
// store for low-latency bulk access. A missing or corrupt blob is
// rebuilt from the relational table, which is the source of truth.
func (s *Store) GetCalendarEventList() ([]models.CalendarEvent, error) {
	_, kv, err := s.handles()
	if err != nil {
		return nil, err
	}

	var events []models.CalendarEvent
	ok, getErr := kv.GetJSON(CalendarListKey, &events)
	if getErr != nil {
		logging.Get(logging.CategoryKV).Warn("Corrupt calendar list blob, rebuilding: %v", getErr)
		ok = false
	}
	if ok {
		return events, nil
	}

	events, err = s.GetCalendarEvents("")
	if err != nil {
		return nil, err
	}
	if setErr := kv.SetJSON(CalendarListKey, events); setErr != nil {
		logging.KVDebug("Failed to rewrite calendar list blob: %v", setErr)
	}
	return events, nil
}

// calendarSelect is the shared projection for calendar queries.
const calendarSelect = `SELECT id, user_id, title, description, start_date, end_date, category, crop_type, is_completed, has_reminder, reminder_date, created_at, updated_at FROM calendar_events`

// queryCalendarEvents runs a calendar projection query under the retry
// executor and scans the rows.
func (s *Store) queryCalendarEvents(op, query string, args ...interface{}) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	err := s.execute(op, func(db *sql.DB) error {
		rows, queryErr := db.Query(query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		events = events[:0]
		for rows.Next() {
			e, scanErr := scanCalendarEvent(rows)
			if scanErr != nil {
				return scanErr
			}
			events = append(events, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// scanCalendarEvent maps one row to a CalendarEvent.
func scanCalendarEvent(rows *sql.Rows) (models.CalendarEvent, error) {
	var e models.CalendarEvent
	var userID sql.NullString
	var isCompleted, hasReminder int
	err := rows.Scan(&e.ID, &userID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
		&e.Category, &e.CropType, &isCompleted, &hasReminder, &e.ReminderDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.UserID = userID.String
	e.IsCompleted = isCompleted != 0
	e.HasReminder = hasReminder != 0
	return e, nil
}

// refreshCalendarList rewrites the derived key-value list from the
// relational table. Best effort: a failure leaves the blob stale, never
// fails the mutation that triggered the refresh.
func (s *Store) refreshCalendarList() {
	_, kv, err := s.handles()
	if err != nil {
		return
	}
	events, err := s.GetCalendarEvents("")
	if err != nil {
		logging.KVDebug("Calendar list refresh read failed: %v", err)
		return
	}
	if err := kv.SetJSON(CalendarListKey, events); err != nil {
		logging.KVDebug("Calendar list refresh write failed: %v", err)
	}
}

// nullIfEmpty maps an empty string to NULL so optional foreign keys stay
// satisfiable.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
