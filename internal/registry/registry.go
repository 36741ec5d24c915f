// Package registry owns the set of registered authentication terminals and
// their append-only change history. Every mutation records an audit entry
// in the same transaction, attributed to the acting admin.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"biometric-device-console/internal/storage"
)

// ErrValidation is returned when a required field is missing or out of range.
var ErrValidation = errors.New("validation failed")

type Registry struct {
	store  storage.Provider
	logger *slog.Logger

	now func() time.Time
}

func New(store storage.Provider) *Registry {
	return &Registry{
		store:  store,
		logger: slog.With("component", "registry"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Patch carries the mutable device fields of an update. Nil fields are left
// unchanged. SerialNo is identity and never patched.
type Patch struct {
	DeviceName *string
	AuthMode   *storage.AuthMode
	IsActive   *bool
}

// ModeInfo is the read-only projection a field terminal fetches at boot to
// decide which biometric flow to run.
type ModeInfo struct {
	AuthMode   storage.AuthMode `json:"authMode"`
	DeviceName string           `json:"deviceName"`
	IsActive   bool             `json:"isActive"`
}

func (r *Registry) Create(ctx context.Context, device storage.Device, actor string) (*storage.Device, error) {
	if strings.TrimSpace(device.SerialNo) == "" {
		return nil, fmt.Errorf("%w: serialNo is required", ErrValidation)
	}
	if strings.TrimSpace(device.DeviceName) == "" {
		return nil, fmt.Errorf("%w: deviceName is required", ErrValidation)
	}
	if !device.AuthMode.Valid() {
		return nil, fmt.Errorf("%w: invalid authMode %d", ErrValidation, device.AuthMode)
	}

	device.LastUpdated = r.now()

	audit := storage.DeviceLog{
		SerialNo:      device.SerialNo,
		ChangeType:    storage.ChangeCreate,
		ChangeDetails: fmt.Sprintf("Device registered: %s", device.DeviceName),
		Timestamp:     device.LastUpdated,
		AdminUser:     actor,
	}

	if err := r.store.CreateDevice(ctx, device, audit); err != nil {
		return nil, err
	}

	r.logger.Info("Device registered", "serial_no", device.SerialNo, "actor", actor)
	return &device, nil
}

func (r *Registry) Update(ctx context.Context, serialNo string, patch Patch, actor string) (*storage.Device, error) {
	device, err := r.store.GetDevice(ctx, serialNo)
	if err != nil {
		return nil, err
	}

	var changed []string
	if patch.DeviceName != nil && *patch.DeviceName != device.DeviceName {
		if strings.TrimSpace(*patch.DeviceName) == "" {
			return nil, fmt.Errorf("%w: deviceName is required", ErrValidation)
		}
		device.DeviceName = *patch.DeviceName
		changed = append(changed, fmt.Sprintf("name=%s", device.DeviceName))
	}
	if patch.AuthMode != nil && *patch.AuthMode != device.AuthMode {
		if !patch.AuthMode.Valid() {
			return nil, fmt.Errorf("%w: invalid authMode %d", ErrValidation, *patch.AuthMode)
		}
		device.AuthMode = *patch.AuthMode
		changed = append(changed, fmt.Sprintf("mode=%s", device.AuthMode))
	}
	if patch.IsActive != nil && *patch.IsActive != device.IsActive {
		device.IsActive = *patch.IsActive
		changed = append(changed, fmt.Sprintf("active=%t", device.IsActive))
	}

	device.LastUpdated = r.now()

	details := "Updated settings"
	if len(changed) > 0 {
		details = fmt.Sprintf("Updated settings: %s", strings.Join(changed, ", "))
	}

	audit := storage.DeviceLog{
		SerialNo:      serialNo,
		ChangeType:    storage.ChangeUpdate,
		ChangeDetails: details,
		Timestamp:     device.LastUpdated,
		AdminUser:     actor,
	}

	if err := r.store.UpdateDevice(ctx, *device, audit); err != nil {
		return nil, err
	}

	r.logger.Info("Device updated", "serial_no", serialNo, "actor", actor, "changes", len(changed))
	return device, nil
}

func (r *Registry) Delete(ctx context.Context, serialNo string, actor string) error {
	audit := storage.DeviceLog{
		SerialNo:      serialNo,
		ChangeType:    storage.ChangeDelete,
		ChangeDetails: "Device removed",
		Timestamp:     r.now(),
		AdminUser:     actor,
	}

	if err := r.store.DeleteDevice(ctx, serialNo, audit); err != nil {
		return err
	}

	r.logger.Info("Device removed", "serial_no", serialNo, "actor", actor)
	return nil
}

func (r *Registry) Get(ctx context.Context, serialNo string) (*storage.Device, error) {
	return r.store.GetDevice(ctx, serialNo)
}

func (r *Registry) List(ctx context.Context) ([]storage.Device, error) {
	return r.store.ListDevices(ctx)
}

// AuthMode is the single endpoint a terminal calls at boot. Read-only and
// side-effect free.
func (r *Registry) AuthMode(ctx context.Context, serialNo string) (*ModeInfo, error) {
	device, err := r.store.GetDevice(ctx, serialNo)
	if err != nil {
		return nil, err
	}
	return &ModeInfo{
		AuthMode:   device.AuthMode,
		DeviceName: device.DeviceName,
		IsActive:   device.IsActive,
	}, nil
}

// Logs returns the audit history for a serial, newest first. History is
// returned even when the device itself no longer exists.
func (r *Registry) Logs(ctx context.Context, serialNo string) ([]storage.DeviceLog, error) {
	return r.store.ListDeviceLogs(ctx, serialNo)
}
