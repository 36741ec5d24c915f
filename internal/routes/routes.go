package routes

import (
	"github.com/gin-gonic/gin"

	"biometric-device-console/internal/directory"
	"biometric-device-console/internal/registry"
	"biometric-device-console/internal/session"
	"biometric-device-console/internal/storage"
)

// Context keys used to inject services into handlers.
const (
	ctxRegistry  = "Registry"
	ctxDirectory = "Directory"
	ctxSessions  = "Sessions"
	ctxStorage   = "Storage"
)

// Inject returns middleware that makes the services available to handlers.
func Inject(reg *registry.Registry, dir *directory.Directory, sessions *session.Manager, store storage.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRegistry, reg)
		c.Set(ctxDirectory, dir)
		c.Set(ctxSessions, sessions)
		c.Set(ctxStorage, store)
		c.Next()
	}
}

func GetRegistry(c *gin.Context) *registry.Registry {
	return c.MustGet(ctxRegistry).(*registry.Registry)
}

func GetDirectory(c *gin.Context) *directory.Directory {
	return c.MustGet(ctxDirectory).(*directory.Directory)
}

func GetSessions(c *gin.Context) *session.Manager {
	return c.MustGet(ctxSessions).(*session.Manager)
}

func GetStorage(c *gin.Context) storage.Provider {
	return c.MustGet(ctxStorage).(storage.Provider)
}

// RegisterRoutes wires the API route groups.
func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(ErrorHandler())

	Health(api)
	AuthRoutes(api.Group("/auth"))
	DeviceRoutes(api.Group("/device"))
	AuthLogRoutes(api.Group("/authlogs"))
	UserRoutes(api.Group("/users"))
}
