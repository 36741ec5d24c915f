package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/storage"
)

type createUserRequest struct {
	Username string       `json:"username"`
	Role     storage.Role `json:"role"`
	Password string       `json:"password"`
}

type updateUserRequest struct {
	Role     *storage.Role `json:"role"`
	Password *string       `json:"password"`
}

// UserRoutes manages admin accounts. The directory itself enforces the
// super_admin gate against the resolved caller.
func UserRoutes(r *gin.RouterGroup) {
	r.Use(AuthMiddleware())

	r.GET("", func(c *gin.Context) {
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		users, err := GetDirectory(c).List(c.Request.Context(), caller)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	})

	r.POST("", func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := GetDirectory(c).Create(c.Request.Context(), caller, req.Username, req.Role, req.Password)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	})

	r.PUT("/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := GetDirectory(c).Update(c.Request.Context(), caller, id, directory.UpdateRequest{
			Role:     req.Role,
			Password: req.Password,
		}); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.DELETE("/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := GetDirectory(c).Delete(c.Request.Context(), caller, id); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/logs/:username", func(c *gin.Context) {
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		logs, err := GetDirectory(c).Logs(c.Request.Context(), caller, c.Param("username"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	})
}
