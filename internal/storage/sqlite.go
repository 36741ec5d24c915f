package storage

import "biometric-device-console/internal/config"

type SQLiteProvider struct {
	SQLProvider
}

func NewSQLiteProvider(config *config.Storage) *SQLiteProvider {
	base := NewSQLProvider(config, "sqlite3", config.SQLite.Path)
	if base == nil {
		return nil
	}
	return &SQLiteProvider{
		SQLProvider: *base,
	}
}
