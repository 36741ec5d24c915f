package routes

import (
	"errors"
	"net/http"

	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/registry"
	"biometric-device-console/internal/session"
	"biometric-device-console/internal/storage"
)

// HTTPError represents an error with an associated HTTP status code and user message
type HTTPError struct {
	Err        error    // The underlying error
	StatusCode int      // HTTP status code
	Message    string   // User-friendly message
	StopCodes  []string // Optional stop codes for client-side handling
	Internal   bool     // Whether this is an internal error (hide details from user)
}

// ErrorInfo contains error metadata for user-facing errors
type ErrorInfo struct {
	Message   string   // User-friendly message
	StopCodes []string // Optional stop codes for client-side application
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, err error, message string, stopCodes ...string) *HTTPError {
	return &HTTPError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
		StopCodes:  stopCodes,
		Internal:   statusCode >= 500,
	}
}

// Routes-specific errors (that don't conflict with other packages)
var (
	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors
	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")

	// Internal errors
	ErrInternalServer = errors.New("internal server error")
	ErrDatabaseError  = errors.New("database error")
)

// errorStatusMap maps errors to HTTP status codes
var errorStatusMap = map[error]int{
	// 400 Bad Request
	ErrInvalidRequest:       http.StatusBadRequest,
	ErrMissingParameter:     http.StatusBadRequest,
	registry.ErrValidation:  http.StatusBadRequest,
	directory.ErrValidation: http.StatusBadRequest,

	// 401 Unauthorized
	ErrUnauthorized:           http.StatusUnauthorized,
	directory.ErrUnauthorized: http.StatusUnauthorized,
	session.ErrNonValidToken:  http.StatusUnauthorized,
	session.ErrInvalidToken:   http.StatusUnauthorized,
	session.ErrRevokedToken:   http.StatusUnauthorized,

	// 403 Forbidden
	directory.ErrForbidden: http.StatusForbidden,

	// 404 Not Found
	storage.ErrNotFound: http.StatusNotFound,

	// 409 Conflict
	storage.ErrConflict: http.StatusConflict,

	// 422 Unprocessable Entity
	directory.ErrInvariantViolation: http.StatusUnprocessableEntity,

	// 500 Internal Server Error
	ErrInternalServer: http.StatusInternalServerError,
	ErrDatabaseError:  http.StatusInternalServerError,
}

// errorInfoMap maps errors to user-friendly messages and optional stop codes
var errorInfoMap = map[error]ErrorInfo{
	// Authentication
	ErrUnauthorized: {
		Message:   "Authentication required",
		StopCodes: []string{"AUTH_REQUIRED"},
	},
	directory.ErrUnauthorized: {
		Message:   "Invalid credentials provided",
		StopCodes: []string{"AUTH_INVALID_CREDENTIALS"},
	},
	session.ErrNonValidToken: {
		Message:   "Invalid or expired authentication token",
		StopCodes: []string{"AUTH_INVALID_TOKEN"},
	},
	session.ErrInvalidToken: {
		Message:   "Invalid or expired authentication token",
		StopCodes: []string{"AUTH_INVALID_TOKEN"},
	},
	session.ErrRevokedToken: {
		Message:   "Session has been logged out",
		StopCodes: []string{"AUTH_TOKEN_REVOKED"},
	},

	// Authorization
	directory.ErrForbidden: {
		Message:   "You don't have permission to perform this action",
		StopCodes: []string{"FORBIDDEN"},
	},

	// Domain
	storage.ErrNotFound: {
		Message:   "Record not found",
		StopCodes: []string{"NOT_FOUND"},
	},
	storage.ErrConflict: {
		Message:   "Identifier is already registered",
		StopCodes: []string{"CONFLICT"},
	},
	directory.ErrInvariantViolation: {
		Message:   "This account is protected",
		StopCodes: []string{"INVARIANT_VIOLATION"},
	},
	registry.ErrValidation: {
		Message:   "Required field is missing or invalid",
		StopCodes: []string{"VALIDATION_ERROR"},
	},
	directory.ErrValidation: {
		Message:   "Required field is missing or invalid",
		StopCodes: []string{"VALIDATION_ERROR"},
	},

	// Validation
	ErrInvalidRequest: {
		Message:   "Invalid request format",
		StopCodes: []string{"INVALID_REQUEST"},
	},
	ErrMissingParameter: {
		Message:   "Required parameter is missing",
		StopCodes: []string{"MISSING_PARAMETER"},
	},

	// Internal (no stop codes for internal errors)
	ErrInternalServer: {
		Message: "An internal error occurred",
	},
	ErrDatabaseError: {
		Message: "Database operation failed",
	},
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	// Check if it's already an HTTPError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	// Check direct match
	if status, ok := errorStatusMap[err]; ok {
		return status
	}

	// Check if error wraps a known error
	for knownErr, status := range errorStatusMap {
		if errors.Is(err, knownErr) {
			return status
		}
	}

	// Default to 500 Internal Server Error
	return http.StatusInternalServerError
}

// GetErrorInfo returns error information including message and stop codes
func GetErrorInfo(err error) ErrorInfo {
	// Check if it's an HTTPError with custom info
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return ErrorInfo{
			Message:   httpErr.Message,
			StopCodes: httpErr.StopCodes,
		}
	}

	// Check direct match
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	// Check if error wraps a known error
	for knownErr, info := range errorInfoMap {
		if errors.Is(err, knownErr) {
			return info
		}
	}

	// For unknown errors, return a generic message for 5xx, specific for others
	status := GetErrorStatus(err)
	if status >= 500 {
		return ErrorInfo{Message: "An internal error occurred"}
	}
	return ErrorInfo{Message: err.Error()}
}
