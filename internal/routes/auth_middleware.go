// Authentication middleware.
// Resolves the session cookie into a caller identity and stores it in the
// request context. Role checks happen in the directory against that
// resolved identity, never against anything the client sent.
package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"biometric-device-console/internal/directory"
)

const AUTH_COOKIE_NAME = "auth_token"

const AUTH_FAIL_STATUS = http.StatusUnauthorized // HTTP status code for authentication failure

var (
	ErrCallerNotFound = errors.New("caller not found in context")
	ErrCallerNotValid = errors.New("caller in context has unexpected type")
)

// Set authentication cookie.
// The cookie is set to expire when the token expires.
func setAuthCookie(c *gin.Context, token string, expiry time.Time) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"

	c.SetCookie(
		AUTH_COOKIE_NAME,
		token,
		int(time.Until(expiry).Seconds()),
		"/",
		"",
		secure,
		true,
	)
}

func clearAuthCookie(c *gin.Context) {
	c.SetCookie(
		AUTH_COOKIE_NAME,
		"",
		-1,
		"/",
		"",
		false,
		true,
	)
}

// GetCaller returns the resolved identity set by AuthMiddleware.
func GetCaller(c *gin.Context) (directory.Caller, error) {
	v, exists := c.Get("caller")
	if !exists {
		return directory.Caller{}, ErrCallerNotFound
	}
	caller, ok := v.(directory.Caller)
	if !ok {
		slog.Warn("GetCaller: caller in context has unexpected type")
		return directory.Caller{}, ErrCallerNotValid
	}
	return caller, nil
}

// AuthMiddleware requires a valid session token and sets the caller in the
// request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AUTH_COOKIE_NAME)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		caller, err := GetSessions(c).Verify(token)
		if err != nil {
			slog.Warn("AuthMiddleware: invalid session token", "error", err)
			AbortWithError(c, err)
			return
		}

		c.Set("caller", *caller)
		c.Next()
	}
}
