package store

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"

	"farmstore/internal/config"
	"farmstore/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestStore builds an initialized in-memory store with zero backoff.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Config{
		DatabasePath: ":memory:",
		KVPath:       filepath.Join(t.TempDir(), "kv.json"),
		Retry:        config.RetryConfig{MaxRetries: 3, BaseDelayMS: 0},
	}
	s := New(cfg)
	if _, err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUpsertUser(t *testing.T, s *Store, userID string) {
	t.Helper()
	err := s.UpsertUser(models.UserRecord{UserID: userID, Name: "Test Farmer"})
	if err != nil {
		t.Fatalf("Failed to upsert user %s: %v", userID, err)
	}
}

func TestOperationsBeforeInitialize(t *testing.T) {
	cfg := config.Default(t.TempDir())
	s := New(cfg)

	_, err := s.GetCropRecords("u1")
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized before Initialize, got %v", err)
	}
	if err := s.UpsertUser(models.UserRecord{UserID: "u1", Name: "A"}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized for write before Initialize, got %v", err)
	}
}

func TestInitializeIsIdempotentWhileReady(t *testing.T) {
	s := newTestStore(t)

	first := s.MigrationReport()
	report, err := s.Initialize()
	if err != nil {
		t.Fatalf("Second Initialize failed: %v", err)
	}
	if report != first {
		t.Error("Second Initialize should return the prior migration report")
	}
}

func TestCloseIsIdempotentAndFinal(t *testing.T) {
	cfg := config.Config{
		DatabasePath: ":memory:",
		KVPath:       filepath.Join(t.TempDir(), "kv.json"),
		Retry:        config.RetryConfig{MaxRetries: 1, BaseDelayMS: 0},
	}
	s := New(cfg)
	if _, err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	if _, _, err := s.GetUser("u1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized after Close, got %v", err)
	}
	if _, err := s.Initialize(); err == nil {
		t.Error("Expected Initialize on a closed store to fail")
	}
}

func TestMigrationWarningsSurfaceInReport(t *testing.T) {
	s := newTestStore(t)

	report := s.MigrationReport()
	if report == nil {
		t.Fatal("Expected a migration report after Initialize")
	}
	if report.ToVersion != CurrentSchemaVersion {
		t.Errorf("Expected report target %d, got %d", CurrentSchemaVersion, report.ToVersion)
	}
}

func TestEndToEndCropScenario(t *testing.T) {
	s := newTestStore(t)
	mustUpsertUser(t, s, "u1")

	id, err := s.InsertCropRecord(models.CropRecord{
		UserID:       "u1",
		CropName:     "Wheat",
		PlantingDate: "2024-01-01",
		Area:         2.5,
	})
	if err != nil {
		t.Fatalf("InsertCropRecord failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive crop ID, got %d", id)
	}

	records, err := s.GetCropRecords("u1")
	if err != nil {
		t.Fatalf("GetCropRecords failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Status != models.CropStatusActive {
		t.Errorf("Expected status active, got %s", got.Status)
	}
	if got.CreatedAt != got.UpdatedAt {
		t.Errorf("Expected created_at == updated_at, got %s vs %s", got.CreatedAt, got.UpdatedAt)
	}
	if got.Area != 2.5 {
		t.Errorf("Expected area 2.5, got %v", got.Area)
	}
}

func TestGetCropRecordsEmptyUserIsError(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetCropRecords(""); err == nil {
		t.Error("Expected an error for empty user_id, not an empty result")
	}
}

func TestUserUpsertPreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(models.UserRecord{UserID: "u1", Name: "Asha"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	first, found, err := s.GetUser("u1")
	if err != nil || !found {
		t.Fatalf("GetUser failed: found=%v err=%v", found, err)
	}

	if err := s.UpsertUser(models.UserRecord{UserID: "u1", Name: "Asha K", Phone: "123"}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}
	second, found, err := s.GetUser("u1")
	if err != nil || !found {
		t.Fatalf("GetUser failed: found=%v err=%v", found, err)
	}

	if second.CreatedAt != first.CreatedAt {
		t.Errorf("Upsert must preserve created_at: %s vs %s", first.CreatedAt, second.CreatedAt)
	}
	if second.Name != "Asha K" || second.Phone != "123" {
		t.Errorf("Upsert did not replace mutable fields: %+v", second)
	}
}

func TestGetUserAbsenceIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetUser("nobody")
	if err != nil {
		t.Fatalf("Expected no error for absent user, got %v", err)
	}
	if found {
		t.Error("Expected found=false for absent user")
	}
}
