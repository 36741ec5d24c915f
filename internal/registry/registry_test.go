package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"biometric-device-console/internal/config"
	"biometric-device-console/internal/storage"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	cfg := &config.Storage{
		SQLite: &config.SQLiteStorage{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	provider := storage.NewProvider(cfg)
	if provider == nil {
		t.Fatal("NewProvider returned nil")
	}
	t.Cleanup(func() { provider.Close() })
	return New(provider)
}

func TestCreate_RejectsMissingFields(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		device storage.Device
	}{
		{"empty serial", storage.Device{DeviceName: "Gate", AuthMode: storage.AuthModeFace}},
		{"empty name", storage.Device{SerialNo: "BC9001", AuthMode: storage.AuthModeFace}},
		{"bad mode", storage.Device{SerialNo: "BC9001", DeviceName: "Gate", AuthMode: storage.AuthMode(7)}},
	}

	for _, tc := range cases {
		if _, err := reg.Create(ctx, tc.device, "tester"); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestCreate_DuplicateSerial_LeavesRegistryUnchanged(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	original := storage.Device{
		SerialNo:   "BC9001",
		DeviceName: "Main Entrance",
		AuthMode:   storage.AuthModeFace,
		IsActive:   true,
	}
	if _, err := reg.Create(ctx, original, "tester"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dupe := storage.Device{
		SerialNo:   "BC9001",
		DeviceName: "Impostor",
		AuthMode:   storage.AuthModeVein,
		IsActive:   false,
	}
	if _, err := reg.Create(ctx, dupe, "tester"); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := reg.Get(ctx, "BC9001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DeviceName != "Main Entrance" || got.AuthMode != storage.AuthModeFace {
		t.Errorf("registered device was modified by rejected create: %+v", got)
	}
}

func TestUpdate_RecordsOneAuditEntryPerMutation(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	device := storage.Device{
		SerialNo:   "BC9001",
		DeviceName: "Main Entrance",
		AuthMode:   storage.AuthModeFace,
		IsActive:   true,
	}
	if _, err := reg.Create(ctx, device, "alice"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mode := storage.AuthModeFaceAndVein
	if _, err := reg.Update(ctx, "BC9001", Patch{AuthMode: &mode}, "bob"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	logs, err := reg.Logs(ctx, "BC9001")
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(logs))
	}
	if logs[0].ChangeType != storage.ChangeUpdate {
		t.Errorf("expected newest entry UPDATE, got %s", logs[0].ChangeType)
	}
	if logs[0].AdminUser != "bob" {
		t.Errorf("expected update attributed to bob, got %s", logs[0].AdminUser)
	}
}

func TestUpdate_RejectsInvalidMode(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	device := storage.Device{SerialNo: "BC9001", DeviceName: "Gate", AuthMode: storage.AuthModeFace}
	if _, err := reg.Create(ctx, device, "tester"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bad := storage.AuthMode(42)
	if _, err := reg.Update(ctx, "BC9001", Patch{AuthMode: &bad}, "tester"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDelete_AuditHistoryStaysQueryable(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	device := storage.Device{SerialNo: "BC9001", DeviceName: "Gate", AuthMode: storage.AuthModeVein}
	if _, err := reg.Create(ctx, device, "alice"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := reg.Delete(ctx, "BC9001", "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := reg.Get(ctx, "BC9001"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := reg.AuthMode(ctx, "BC9001"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from AuthMode after delete, got %v", err)
	}

	logs, err := reg.Logs(ctx, "BC9001")
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected full history after delete, got %d entries", len(logs))
	}
}

func TestAuthMode_ReturnsProjection(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	device := storage.Device{
		SerialNo:   "BC9001",
		DeviceName: "Server Room",
		AuthMode:   storage.AuthModeFaceAndVein,
		IsActive:   true,
	}
	if _, err := reg.Create(ctx, device, "tester"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := reg.AuthMode(ctx, "BC9001")
	if err != nil {
		t.Fatalf("AuthMode failed: %v", err)
	}
	if info.AuthMode != storage.AuthModeFaceAndVein || info.DeviceName != "Server Room" || !info.IsActive {
		t.Errorf("unexpected projection: %+v", info)
	}
}

func TestLifecycle_SerialNeverChanges(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	device := storage.Device{SerialNo: "BC9001", DeviceName: "Gate", AuthMode: storage.AuthModeFace}
	if _, err := reg.Create(ctx, device, "tester"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "Renamed Gate"
	updated, err := reg.Update(ctx, "BC9001", Patch{DeviceName: &name}, "tester")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.SerialNo != "BC9001" {
		t.Errorf("serial changed on update: %s", updated.SerialNo)
	}
	if !updated.LastUpdated.Equal(now) {
		t.Errorf("expected LastUpdated %s, got %s", now, updated.LastUpdated)
	}
}
