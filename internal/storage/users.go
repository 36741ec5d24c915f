package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const (
	sqlInsertUser = `
		INSERT INTO admin_users (username, password_hash, role, created_at)
		VALUES (:username, :password_hash, :role, :created_at)`

	sqlUpdateUser = `
		UPDATE admin_users
		SET password_hash = :password_hash, role = :role
		WHERE id = :id`

	sqlDeleteUser = `DELETE FROM admin_users WHERE id = ?`

	sqlSelectUser           = `SELECT * FROM admin_users WHERE id = ?`
	sqlSelectUserByUsername = `SELECT * FROM admin_users WHERE username = ?`
	sqlSelectUsers          = `SELECT * FROM admin_users ORDER BY id`
	sqlCountUsers           = `SELECT COUNT(*) FROM admin_users`

	sqlInsertUserLog = `
		INSERT INTO admin_user_logs (username, change_type, change_details, timestamp, admin_user)
		VALUES (:username, :change_type, :change_details, :timestamp, :admin_user)`

	sqlSelectUserLogs = `SELECT * FROM admin_user_logs WHERE username = ? ORDER BY timestamp DESC, id DESC`
)

func insertUserLogTx(tx *sqlx.Tx, entry AdminUserLog) error {
	_, err := tx.NamedExec(sqlInsertUserLog, entry)
	return err
}

func (p *SQLProvider) CreateUser(ctx context.Context, user AdminUser, audit AdminUserLog) (int64, error) {
	var id int64
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExec(sqlInsertUser, user)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return insertUserLogTx(tx, audit)
	})
	return id, mapSQLError(err)
}

func (p *SQLProvider) GetUser(ctx context.Context, id int64) (*AdminUser, error) {
	var user AdminUser
	if err := p.db.GetContext(ctx, &user, sqlSelectUser, id); err != nil {
		return nil, mapSQLError(err)
	}
	return &user, nil
}

func (p *SQLProvider) GetUserByUsername(ctx context.Context, username string) (*AdminUser, error) {
	var user AdminUser
	if err := p.db.GetContext(ctx, &user, sqlSelectUserByUsername, username); err != nil {
		return nil, mapSQLError(err)
	}
	return &user, nil
}

func (p *SQLProvider) ListUsers(ctx context.Context) ([]AdminUser, error) {
	users := []AdminUser{}
	if err := p.db.SelectContext(ctx, &users, sqlSelectUsers); err != nil {
		return nil, mapSQLError(err)
	}
	return users, nil
}

func (p *SQLProvider) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.GetContext(ctx, &count, sqlCountUsers); err != nil {
		return 0, mapSQLError(err)
	}
	return count, nil
}

func (p *SQLProvider) UpdateUser(ctx context.Context, user AdminUser, audit AdminUserLog) error {
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExec(sqlUpdateUser, user)
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
		return insertUserLogTx(tx, audit)
	})
	return mapSQLError(err)
}

func (p *SQLProvider) DeleteUser(ctx context.Context, id int64, audit AdminUserLog) error {
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.Exec(sqlDeleteUser, id)
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
		return insertUserLogTx(tx, audit)
	})
	return mapSQLError(err)
}

func (p *SQLProvider) ListUserLogs(ctx context.Context, username string) ([]AdminUserLog, error) {
	logs := []AdminUserLog{}
	if err := p.db.SelectContext(ctx, &logs, sqlSelectUserLogs, username); err != nil {
		return nil, mapSQLError(err)
	}
	return logs, nil
}
