package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"biometric-device-console/internal/authlog"
	"biometric-device-console/internal/storage"
)

type reportAuthLogRequest struct {
	Timestamp    time.Time        `json:"timestamp"`
	UserID       string           `json:"userId" binding:"required"`
	UserName     string           `json:"userName"`
	DeviceName   string           `json:"deviceName"`
	SerialNo     string           `json:"serialNo" binding:"required"`
	AuthMode     storage.AuthMode `json:"authMode"`
	IsSuccess    bool             `json:"isSuccess"`
	ErrorMessage string           `json:"errorMessage"`
}

// queryFromRequest reads the shared filter parameters. An absent date means
// all days, never none.
func queryFromRequest(c *gin.Context) (authlog.Query, error) {
	q := authlog.Query{
		Day:    c.Query("date"),
		Mode:   authlog.ModeAll,
		Search: c.Query("q"),
	}

	if modeStr := c.Query("mode"); modeStr != "" && modeStr != "ALL" {
		n, err := strconv.Atoi(modeStr)
		if err != nil || !storage.AuthMode(n).Valid() {
			return q, ErrInvalidRequest
		}
		q.Mode = storage.AuthMode(n)
	}

	return q, nil
}

func AuthLogRoutes(r *gin.RouterGroup) {
	// Terminal-facing: field devices report attempts here. Insert-only.
	r.POST("", func(c *gin.Context) {
		var req reportAuthLogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		if req.Timestamp.IsZero() {
			req.Timestamp = time.Now().UTC()
		}
		if !req.AuthMode.Valid() {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		entry := storage.AuthLog{
			Timestamp:    req.Timestamp,
			UserID:       req.UserID,
			UserName:     req.UserName,
			DeviceName:   req.DeviceName,
			SerialNo:     req.SerialNo,
			AuthMode:     req.AuthMode,
			IsSuccess:    req.IsSuccess,
			ErrorMessage: req.ErrorMessage,
		}
		if err := GetStorage(c).InsertAuthLog(c.Request.Context(), entry); err != nil {
			slog.Error("Failed to store auth attempt", "serial_no", req.SerialNo, "error", err)
			AbortWithError(c, ErrDatabaseError)
			return
		}
		c.Status(http.StatusCreated)
	})

	admin := r.Group("", AuthMiddleware())

	admin.GET("", func(c *gin.Context) {
		logs, err := GetStorage(c).ListAuthLogs(c.Request.Context(), c.Query("date"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	})

	admin.GET("/export.csv", func(c *gin.Context) {
		q, err := queryFromRequest(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		// Day filtering happens in the store; mode and text filters on
		// the loaded set, same contract as the console UI.
		logs, err := GetStorage(c).ListAuthLogs(c.Request.Context(), q.Day)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		filtered := authlog.Filter(logs, q)

		name := q.Day
		if name == "" {
			name = "all"
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="auth_logs_%s.csv"`, name))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)

		if err := authlog.WriteCSV(c.Writer, filtered); err != nil {
			slog.Error("Failed to stream CSV export", "error", err)
		}
	})
}
