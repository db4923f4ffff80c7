package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/services"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// RestoreHandlers contains the restore resolution HTTP handlers
type RestoreHandlers struct {
	restoreService *services.RestoreService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewRestoreHandlers creates restore handlers with injected dependencies
func NewRestoreHandlers(restoreService *services.RestoreService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RestoreHandlers {
	return &RestoreHandlers{
		restoreService: restoreService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// PostResolve handles POST /api/v1/restore/resolve - one step of the mount
// restore state machine. Clients poll this as their data readiness changes;
// the same mount never restores twice.
func (h *RestoreHandlers) PostResolve(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_resolve_request", sessionID)
	defer marker.Complete()
	h.logger.System().Debug("Received restore resolve request", "method", c.Request.Method, "path", c.Request.URL.Path, "sessionId", logging.SanitizeSessionID(sessionID))

	var req services.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.System().Error("Restore resolve JSON binding failed",
			"sessionId", logging.SanitizeSessionID(sessionID),
			"error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.restoreService.Resolve(c.Request.Context(), sessionID, req)
	if err != nil {
		marker.SetSuccess(false)
		if errors.Is(err, services.ErrInvalidResolveRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.State().Error("Restore resolution failed",
			"page", req.Page,
			"mountId", req.MountID,
			"sessionId", logging.SanitizeSessionID(sessionID),
			"error", err.Error(),
			"duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve restore"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostResolve request", "duration", marker.Duration, "sessionId", logging.SanitizeSessionID(sessionID), "success", true)

	c.JSON(http.StatusOK, result)
}
