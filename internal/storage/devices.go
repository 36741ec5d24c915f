package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const (
	sqlInsertDevice = `
		INSERT INTO devices (serial_no, device_name, auth_mode, is_active, last_updated)
		VALUES (:serial_no, :device_name, :auth_mode, :is_active, :last_updated)`

	sqlUpdateDevice = `
		UPDATE devices
		SET device_name = :device_name, auth_mode = :auth_mode, is_active = :is_active, last_updated = :last_updated
		WHERE serial_no = :serial_no`

	sqlDeleteDevice = `DELETE FROM devices WHERE serial_no = ?`

	sqlSelectDevice  = `SELECT * FROM devices WHERE serial_no = ?`
	sqlSelectDevices = `SELECT * FROM devices ORDER BY serial_no`

	sqlInsertDeviceLog = `
		INSERT INTO device_logs (serial_no, change_type, change_details, timestamp, admin_user)
		VALUES (:serial_no, :change_type, :change_details, :timestamp, :admin_user)`

	sqlSelectDeviceLogs = `SELECT * FROM device_logs WHERE serial_no = ? ORDER BY timestamp DESC, id DESC`
)

func insertDeviceLogTx(tx *sqlx.Tx, entry DeviceLog) error {
	_, err := tx.NamedExec(sqlInsertDeviceLog, entry)
	return err
}

func (p *SQLProvider) CreateDevice(ctx context.Context, device Device, audit DeviceLog) error {
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExec(sqlInsertDevice, device); err != nil {
			return err
		}
		return insertDeviceLogTx(tx, audit)
	})
	return mapSQLError(err)
}

func (p *SQLProvider) UpdateDevice(ctx context.Context, device Device, audit DeviceLog) error {
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExec(sqlUpdateDevice, device)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return insertDeviceLogTx(tx, audit)
	})
	return mapSQLError(err)
}

func (p *SQLProvider) DeleteDevice(ctx context.Context, serialNo string, audit DeviceLog) error {
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.Exec(sqlDeleteDevice, serialNo)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		// device_logs carries no foreign key on purpose: history for the
		// deleted serial stays queryable.
		return insertDeviceLogTx(tx, audit)
	})
	return mapSQLError(err)
}

func (p *SQLProvider) GetDevice(ctx context.Context, serialNo string) (*Device, error) {
	var device Device
	if err := p.db.GetContext(ctx, &device, sqlSelectDevice, serialNo); err != nil {
		return nil, mapSQLError(err)
	}
	return &device, nil
}

func (p *SQLProvider) ListDevices(ctx context.Context) ([]Device, error) {
	devices := []Device{}
	if err := p.db.SelectContext(ctx, &devices, sqlSelectDevices); err != nil {
		return nil, mapSQLError(err)
	}
	return devices, nil
}

func (p *SQLProvider) AppendDeviceLog(ctx context.Context, entry DeviceLog) error {
	_, err := p.db.NamedExecContext(ctx, sqlInsertDeviceLog, entry)
	return mapSQLError(err)
}

func (p *SQLProvider) ListDeviceLogs(ctx context.Context, serialNo string) ([]DeviceLog, error) {
	logs := []DeviceLog{}
	if err := p.db.SelectContext(ctx, &logs, sqlSelectDeviceLogs, serialNo); err != nil {
		return nil, mapSQLError(err)
	}
	return logs, nil
}
