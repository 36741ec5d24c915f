package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"biometric-device-console/internal/config"
	"biometric-device-console/internal/registry"
	"biometric-device-console/internal/storage"
	"biometric-device-console/internal/utils"
)

type getAuthModeRequest struct {
	SerialNo string `json:"serialNo" binding:"required"`
}

type createDeviceRequest struct {
	SerialNo   string           `json:"serialNo"`
	DeviceName string           `json:"deviceName"`
	AuthMode   storage.AuthMode `json:"authMode"`
	IsActive   bool             `json:"isActive"`
}

type updateDeviceRequest struct {
	DeviceName *string           `json:"deviceName"`
	AuthMode   *storage.AuthMode `json:"authMode"`
	IsActive   *bool             `json:"isActive"`
}

func DeviceRoutes(r *gin.RouterGroup) {
	// Terminal-facing: a field device calls this once at boot to decide
	// which biometric flow to run. No session, cheap, side-effect free.
	r.POST("/getAuthMode", func(c *gin.Context) {
		var req getAuthModeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrMissingParameter)
			return
		}

		mode, err := GetRegistry(c).AuthMode(c.Request.Context(), req.SerialNo)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, mode)
	})

	// Console-facing routes require a session.
	admin := r.Group("", AuthMiddleware())

	admin.GET("", func(c *gin.Context) {
		devices, err := GetRegistry(c).List(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, devices)
	})

	admin.POST("", func(c *gin.Context) {
		var req createDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		device, err := GetRegistry(c).Create(c.Request.Context(), storage.Device{
			SerialNo:   req.SerialNo,
			DeviceName: req.DeviceName,
			AuthMode:   req.AuthMode,
			IsActive:   req.IsActive,
		}, caller.Username)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, device)
	})

	admin.PUT("/:serialNo", func(c *gin.Context) {
		var req updateDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		device, err := GetRegistry(c).Update(c.Request.Context(), c.Param("serialNo"), registry.Patch{
			DeviceName: req.DeviceName,
			AuthMode:   req.AuthMode,
			IsActive:   req.IsActive,
		}, caller.Username)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, device)
	})

	admin.DELETE("/:serialNo", func(c *gin.Context) {
		caller, err := GetCaller(c)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := GetRegistry(c).Delete(c.Request.Context(), c.Param("serialNo"), caller.Username); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	admin.GET("/logs/:serialNo", func(c *gin.Context) {
		logs, err := GetRegistry(c).Logs(c.Request.Context(), c.Param("serialNo"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, logs)
	})

	// Enrollment QR: installers scan this from the console to point a
	// terminal at its mode-lookup endpoint.
	admin.GET("/qr/:serialNo", func(c *gin.Context) {
		serialNo := c.Param("serialNo")

		// Only registered devices get a QR
		if _, err := GetRegistry(c).Get(c.Request.Context(), serialNo); err != nil {
			AbortWithError(c, err)
			return
		}

		base := utils.GetBaseURL(c, config.Cfg.BaseURL)
		payload := fmt.Sprintf(`{"endpoint":"%s/api/device/getAuthMode","serialNo":"%s"}`, base, serialNo)

		png, err := qrcode.Encode(payload, qrcode.Medium, config.QR_IMAGE_SIZE)
		if err != nil {
			slog.Warn("Failed to generate enrollment QR code", "error", err)
			AbortWithError(c, ErrInternalServer)
			return
		}

		c.Data(http.StatusOK, "image/png", png)
	})
}
