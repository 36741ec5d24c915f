package storage

import (
	"context"
	"errors"
	"log/slog"

	"biometric-device-console/internal/config"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("record already exists")
)

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)

	// Device registry. Mutations take the audit entry describing them and
	// commit both in one transaction.
	CreateDevice(ctx context.Context, device Device, audit DeviceLog) error
	UpdateDevice(ctx context.Context, device Device, audit DeviceLog) error
	DeleteDevice(ctx context.Context, serialNo string, audit DeviceLog) error
	GetDevice(ctx context.Context, serialNo string) (*Device, error)
	ListDevices(ctx context.Context) ([]Device, error)

	// Device audit trail. Append-only: no update or delete exists.
	AppendDeviceLog(ctx context.Context, entry DeviceLog) error
	ListDeviceLogs(ctx context.Context, serialNo string) ([]DeviceLog, error)

	// User directory
	CreateUser(ctx context.Context, user AdminUser, audit AdminUserLog) (int64, error)
	GetUser(ctx context.Context, id int64) (*AdminUser, error)
	GetUserByUsername(ctx context.Context, username string) (*AdminUser, error)
	ListUsers(ctx context.Context) ([]AdminUser, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateUser(ctx context.Context, user AdminUser, audit AdminUserLog) error
	DeleteUser(ctx context.Context, id int64, audit AdminUserLog) error
	ListUserLogs(ctx context.Context, username string) ([]AdminUserLog, error)

	// Auth event feed. Insert-only from this side.
	InsertAuthLog(ctx context.Context, entry AuthLog) error
	ListAuthLogs(ctx context.Context, day string) ([]AuthLog, error)
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider := NewSQLiteProvider(config)
		if provider == nil {
			slog.Error("Failed to open sqlite database", "path", config.SQLite.Path)
			return nil
		}
		if err := provider.runMigrations("sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
