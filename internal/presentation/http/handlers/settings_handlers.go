package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/services"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SettingsHandlers contains the per-page display settings HTTP handlers
type SettingsHandlers struct {
	settingsService *services.SettingsService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewSettingsHandlers creates settings handlers with injected dependencies
func NewSettingsHandlers(settingsService *services.SettingsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SettingsHandlers {
	return &SettingsHandlers{
		settingsService: settingsService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// GetSettings handles GET /api/v1/settings/:pageKey - always succeeds with a usable record
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	pageKey := c.Param("pageKey")
	if pageKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageKey is required"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("get_settings_request", sessionID)
	defer marker.Complete()

	rec := h.settingsService.Load(c.Request.Context(), sessionID, pageKey)

	h.logger.Cache().Debug("Settings served",
		"pageKey", pageKey,
		"sessionId", logging.SanitizeSessionID(sessionID),
		"duration", time.Since(start))
	marker.SetSuccess(true)

	c.JSON(http.StatusOK, gin.H{"pageKey": pageKey, "settings": rec})
}

// PutSettings handles PUT /api/v1/settings/:pageKey - merges a partial update
func (h *SettingsHandlers) PutSettings(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	pageKey := c.Param("pageKey")
	if pageKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageKey is required"})
		return
	}

	marker := h.perfTracker.StartOperation("put_settings_request", sessionID)
	defer marker.Complete()

	var partial map[string]json.RawMessage
	if err := c.ShouldBindJSON(&partial); err != nil {
		h.logger.System().Error("Settings update JSON binding failed",
			"pageKey", pageKey,
			"sessionId", logging.SanitizeSessionID(sessionID),
			"error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	rec := h.settingsService.Save(c.Request.Context(), sessionID, pageKey, partial)
	marker.SetSuccess(true)

	c.JSON(http.StatusOK, gin.H{"pageKey": pageKey, "settings": rec})
}

// DeleteSettings handles DELETE /api/v1/settings/:pageKey - resets to defaults
func (h *SettingsHandlers) DeleteSettings(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	pageKey := c.Param("pageKey")
	if pageKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageKey is required"})
		return
	}

	marker := h.perfTracker.StartOperation("delete_settings_request", sessionID)
	defer marker.Complete()

	rec := h.settingsService.Clear(c.Request.Context(), sessionID, pageKey)
	marker.SetSuccess(true)

	c.JSON(http.StatusOK, gin.H{"pageKey": pageKey, "settings": rec})
}
