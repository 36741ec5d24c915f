package storage

import "context"

const (
	sqlInsertAuthLog = `
		INSERT INTO auth_logs (timestamp, user_id, user_name, device_name, serial_no, auth_mode, is_success, error_message)
		VALUES (:timestamp, :user_id, :user_name, :device_name, :serial_no, :auth_mode, :is_success, :error_message)`

	sqlSelectAuthLogs = `SELECT * FROM auth_logs ORDER BY timestamp DESC, id DESC`

	// Day filtering matches an ISO date prefix, same contract the UI
	// applies client-side.
	sqlSelectAuthLogsByDay = `
		SELECT * FROM auth_logs
		WHERE strftime('%Y-%m-%d', timestamp) = ?
		ORDER BY timestamp DESC, id DESC`
)

func (p *SQLProvider) InsertAuthLog(ctx context.Context, entry AuthLog) error {
	_, err := p.db.NamedExecContext(ctx, sqlInsertAuthLog, entry)
	return mapSQLError(err)
}

// ListAuthLogs returns attempts newest first. An empty day means all days.
func (p *SQLProvider) ListAuthLogs(ctx context.Context, day string) ([]AuthLog, error) {
	logs := []AuthLog{}
	var err error
	if day == "" {
		err = p.db.SelectContext(ctx, &logs, sqlSelectAuthLogs)
	} else {
		err = p.db.SelectContext(ctx, &logs, sqlSelectAuthLogsByDay, day)
	}
	if err != nil {
		return nil, mapSQLError(err)
	}
	return logs, nil
}
