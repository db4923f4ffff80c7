// Package routes wires HTTP endpoints to their handlers.
package routes

import (
	"github.com/VendorLens/vendorlens-go/internal/application/container"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/handlers"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the complete route table for the application.
func SetupRoutes(container *container.Container) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())

	sessionHandlers := handlers.NewSessionHandlers(container.SessionService, container.Logger, container.PerfTracker)
	settingsHandlers := handlers.NewSettingsHandlers(container.SettingsService, container.Logger, container.PerfTracker)
	navigationHandlers := handlers.NewNavigationHandlers(container.NavigationService, container.Logger, container.PerfTracker)
	restoreHandlers := handlers.NewRestoreHandlers(container.RestoreService, container.Logger, container.PerfTracker)
	opsHandlers := handlers.NewOpsHandlers(container)
	healthHandlers := handlers.NewHealthHandlers(container)

	// Ops console: authentication, live activity, and log controls.
	ops := router.Group("/api/ops")
	{
		ops.GET("/auth", opsHandlers.AuthCheck)
		ops.POST("/login", opsHandlers.Login)

		protected := ops.Group("")
		protected.Use(opsHandlers.OpsAuthMiddleware())
		{
			protected.GET("/sessions", opsHandlers.GetSessions)
			protected.GET("/stats", opsHandlers.GetStats)
			protected.GET("/stream", opsHandlers.StreamActivity)
			protected.GET("/logs/stream", opsHandlers.StreamLogs)
			protected.GET("/logs/levels", opsHandlers.GetLogLevels)
			protected.POST("/logs/levels", opsHandlers.SetLogLevel)
		}
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandlers.GetHealth)
		v1.POST("/session", sessionHandlers.PostSession)

		// Everything below requires an authenticated session.
		authed := v1.Group("")
		authed.Use(middleware.SessionMiddleware(container.SessionService))
		{
			authed.DELETE("/session", sessionHandlers.DeleteSession)

			authed.GET("/settings/:pageKey", settingsHandlers.GetSettings)
			authed.PUT("/settings/:pageKey", settingsHandlers.PutSettings)
			authed.DELETE("/settings/:pageKey", settingsHandlers.DeleteSettings)

			authed.POST("/navigation/state", navigationHandlers.PostNavigationState)
			authed.GET("/navigation/state", navigationHandlers.GetNavigationState)
			authed.DELETE("/navigation/state", navigationHandlers.DeleteNavigationState)

			authed.POST("/restore/resolve", restoreHandlers.PostResolve)
		}
	}

	return router
}
