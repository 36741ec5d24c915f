// Package authlog is the read side over authentication attempts reported
// by field terminals: stateless filtering, pagination and CSV export over
// an already-loaded collection.
package authlog

import (
	"strings"

	"biometric-device-console/internal/storage"
)

// ModeAll disables auth mode filtering.
const ModeAll storage.AuthMode = -1

type Query struct {
	// Day filters to a single ISO date (YYYY-MM-DD). Empty matches all
	// days, never none.
	Day string
	// Mode matches exactly, or ModeAll.
	Mode storage.AuthMode
	// Search is a case-insensitive substring match over user ID, user
	// name and device serial. Device name is deliberately not searched.
	Search string
}

func matches(log storage.AuthLog, q Query) bool {
	if q.Day != "" && log.Timestamp.Format("2006-01-02") != q.Day {
		return false
	}

	if q.Mode != ModeAll && log.AuthMode != q.Mode {
		return false
	}

	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(log.UserID), term) &&
			!strings.Contains(strings.ToLower(log.UserName), term) &&
			!strings.Contains(strings.ToLower(log.SerialNo), term) {
			return false
		}
	}

	return true
}

// Filter returns the entries of logs matching q, preserving order.
func Filter(logs []storage.AuthLog, q Query) []storage.AuthLog {
	out := make([]storage.AuthLog, 0, len(logs))
	for _, log := range logs {
		if matches(log, q) {
			out = append(out, log)
		}
	}
	return out
}

// Paginate returns the 1-based page of size pageSize. Pages past the end
// are empty, and concatenating all pages reproduces the input exactly.
func Paginate(logs []storage.AuthLog, pageSize, page int) []storage.AuthLog {
	if pageSize < 1 || page < 1 {
		return []storage.AuthLog{}
	}
	start := (page - 1) * pageSize
	if start >= len(logs) {
		return []storage.AuthLog{}
	}
	end := start + pageSize
	if end > len(logs) {
		end = len(logs)
	}
	return logs[start:end]
}
