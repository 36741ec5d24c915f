package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"biometric-device-console/internal/config"
)

func newTestProvider(t *testing.T) Provider {
	t.Helper()

	cfg := &config.Storage{
		SQLite: &config.SQLiteStorage{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	provider := NewProvider(cfg)
	if provider == nil {
		t.Fatal("NewProvider returned nil")
	}
	t.Cleanup(func() { provider.Close() })
	return provider
}

func testDevice(serial string) Device {
	return Device{
		SerialNo:    serial,
		DeviceName:  "Lobby Terminal",
		AuthMode:    AuthModeFace,
		IsActive:    true,
		LastUpdated: time.Now().UTC(),
	}
}

func deviceAudit(serial string, change ChangeType) DeviceLog {
	return DeviceLog{
		SerialNo:      serial,
		ChangeType:    change,
		ChangeDetails: "test entry",
		Timestamp:     time.Now().UTC(),
		AdminUser:     "tester",
	}
}

func TestMigrations_SetsSchemaVersion(t *testing.T) {
	provider := newTestProvider(t)

	version, err := provider.GetSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("GetSchemaVersion failed: %v", err)
	}
	if version < 1 {
		t.Fatalf("expected schema version >= 1, got %d", version)
	}
}

func TestCreateDevice_DuplicateSerial_ReturnsConflict(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	if err := provider.CreateDevice(ctx, testDevice("BC9001"), deviceAudit("BC9001", ChangeCreate)); err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}

	err := provider.CreateDevice(ctx, testDevice("BC9001"), deviceAudit("BC9001", ChangeCreate))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate serial, got %v", err)
	}

	// The rejected create must not have left a second audit row behind.
	logs, err := provider.ListDeviceLogs(ctx, "BC9001")
	if err != nil {
		t.Fatalf("ListDeviceLogs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry after rejected duplicate, got %d", len(logs))
	}
}

func TestUpdateDevice_Missing_ReturnsNotFound(t *testing.T) {
	provider := newTestProvider(t)

	err := provider.UpdateDevice(context.Background(), testDevice("GHOST"), deviceAudit("GHOST", ChangeUpdate))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDevice_AuditTrailSurvives(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	if err := provider.CreateDevice(ctx, testDevice("BC9001"), deviceAudit("BC9001", ChangeCreate)); err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	if err := provider.DeleteDevice(ctx, "BC9001", deviceAudit("BC9001", ChangeDelete)); err != nil {
		t.Fatalf("DeleteDevice failed: %v", err)
	}

	if _, err := provider.GetDevice(ctx, "BC9001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted device, got %v", err)
	}

	logs, err := provider.ListDeviceLogs(ctx, "BC9001")
	if err != nil {
		t.Fatalf("ListDeviceLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit entries after delete, got %d", len(logs))
	}
	// Newest first
	if logs[0].ChangeType != ChangeDelete {
		t.Errorf("expected newest entry to be DELETE, got %s", logs[0].ChangeType)
	}
}

func TestCreateUser_DuplicateUsername_ReturnsConflict(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	user := AdminUser{
		Username:     "ops1",
		PasswordHash: "x",
		Role:         RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	audit := AdminUserLog{
		Username:      "ops1",
		ChangeType:    ChangeCreate,
		ChangeDetails: "test entry",
		Timestamp:     time.Now().UTC(),
		AdminUser:     "tester",
	}

	if _, err := provider.CreateUser(ctx, user, audit); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := provider.CreateUser(ctx, user, audit); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}
}

func TestListAuthLogs_DayFilter(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()

	days := []string{"2026-03-01", "2026-03-01", "2026-03-02"}
	for i, day := range days {
		ts, _ := time.Parse("2006-01-02 15:04:05", day+" 08:00:00")
		entry := AuthLog{
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			UserID:    "EMP-1001",
			UserName:  "Person",
			SerialNo:  "BC9001",
			AuthMode:  AuthModeFace,
			IsSuccess: true,
		}
		if err := provider.InsertAuthLog(ctx, entry); err != nil {
			t.Fatalf("InsertAuthLog failed: %v", err)
		}
	}

	logs, err := provider.ListAuthLogs(ctx, "2026-03-01")
	if err != nil {
		t.Fatalf("ListAuthLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries for 2026-03-01, got %d", len(logs))
	}

	// Empty day matches everything
	all, err := provider.ListAuthLogs(ctx, "")
	if err != nil {
		t.Fatalf("ListAuthLogs failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries without day filter, got %d", len(all))
	}

	// Newest first
	if len(all) > 1 && all[0].Timestamp.Before(all[1].Timestamp) {
		t.Error("expected newest-first ordering")
	}
}
