package handlers

import (
	"net/http"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/services"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// NavigationHandlers contains the return-address snapshot HTTP handlers
type NavigationHandlers struct {
	navigationService *services.NavigationService
	logger            *logging.ChanneledLogger
	perfTracker       *performance.Tracker
}

// NewNavigationHandlers creates navigation handlers with injected dependencies
func NewNavigationHandlers(navigationService *services.NavigationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *NavigationHandlers {
	return &NavigationHandlers{
		navigationService: navigationService,
		logger:            logger,
		perfTracker:       perfTracker,
	}
}

// CaptureRequest is the body for a snapshot capture. Each capture replaces
// whatever the slot held before.
type CaptureRequest struct {
	OriginPage   string                    `json:"originPage" binding:"required"`
	Params       uistate.ParamsBag         `json:"params,omitempty"`
	ScrollOffset int                       `json:"scrollOffset,omitempty"`
	OpenDialog   *uistate.DialogDescriptor `json:"openDialog,omitempty"`
}

// PostNavigationState handles POST /api/v1/navigation/state - captures a snapshot
func (h *NavigationHandlers) PostNavigationState(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_navigation_state_request", sessionID)
	defer marker.Complete()
	h.logger.System().Debug("Received navigation capture request", "method", c.Request.Method, "path", c.Request.URL.Path, "sessionId", logging.SanitizeSessionID(sessionID))

	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.System().Error("Navigation capture JSON binding failed",
			"sessionId", logging.SanitizeSessionID(sessionID),
			"error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	snapshot := h.navigationService.SaveCurrentState(c.Request.Context(), sessionID, req.OriginPage, req.Params, req.ScrollOffset, req.OpenDialog)

	h.logger.State().Info("Navigation state captured",
		"originPage", snapshot.OriginPage,
		"generation", snapshot.Generation,
		"sessionId", logging.SanitizeSessionID(sessionID),
		"duration", time.Since(start))
	marker.SetSuccess(true)

	c.JSON(http.StatusOK, gin.H{
		"status":     "captured",
		"generation": snapshot.Generation,
		"capturedAt": snapshot.CapturedAt,
	})
}

// GetNavigationState handles GET /api/v1/navigation/state - reads the resident snapshot
func (h *NavigationHandlers) GetNavigationState(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("get_navigation_state_request", sessionID)
	defer marker.Complete()

	snapshot := h.navigationService.GetPreviousPage(c.Request.Context(), sessionID)
	marker.SetSuccess(true)

	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{"snapshot": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// DeleteNavigationState handles DELETE /api/v1/navigation/state - clears the slot immediately
func (h *NavigationHandlers) DeleteNavigationState(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("delete_navigation_state_request", sessionID)
	defer marker.Complete()

	h.navigationService.ClearNavigationState(c.Request.Context(), sessionID)
	marker.SetSuccess(true)

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
