package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	// ClientCode is an optional tenant hint from the login form. It is
	// recorded but performs no data isolation.
	ClientCode string `json:"clientCode"`
}

func AuthRoutes(r *gin.RouterGroup) {
	r.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		caller, err := GetDirectory(c).Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		token, expiry, err := GetSessions(c).Issue(*caller)
		if err != nil {
			slog.Error("Failed to issue session token", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		setAuthCookie(c, token, expiry)

		if req.ClientCode != "" {
			slog.Info("Login with client code", "username", caller.Username, "client_code", req.ClientCode)
		}

		c.JSON(http.StatusOK, caller)
	})

	r.POST("/logout", AuthMiddleware(), func(c *gin.Context) {
		if token, err := c.Cookie(AUTH_COOKIE_NAME); err == nil {
			GetSessions(c).Revoke(token)
		}
		clearAuthCookie(c)
		c.Status(http.StatusNoContent)
	})

	// Route to check authentication status
	r.GET("/status", AuthMiddleware(), func(c *gin.Context) {
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "authenticated", "username": caller.Username, "role": caller.Role})
	})
}
