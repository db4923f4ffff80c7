// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/services"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SessionHandlers contains all session lifecycle HTTP handlers
type SessionHandlers struct {
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewSessionHandlers creates session handlers with injected dependencies
func NewSessionHandlers(sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionHandlers {
	return &SessionHandlers{
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// SessionRequest is the registration body. SessionID is optional; a known,
// unexpired ID refreshes the existing session instead of minting a new one.
type SessionRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

// PostSession handles POST /api/v1/session - registers or refreshes a browser session
func (h *SessionHandlers) PostSession(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("post_session_request", "")
	defer marker.Complete()
	h.logger.System().Debug("Received session registration request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// Header wins over body so refresh works without a JSON payload.
	if headerID := c.GetHeader(middleware.SessionHeader); headerID != "" {
		req.SessionID = headerID
	}

	sess, token, err := h.sessionService.Register(c.Request.Context(), req.SessionID, c.Request.UserAgent())
	if err != nil {
		h.logger.Session().Error("Session registration failed", "error", err.Error(), "duration", time.Since(start))
		marker.SetSuccess(false)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register session"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostSession request", "duration", marker.Duration, "sessionId", logging.SanitizeSessionID(sess.SessionID), "success", true)

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sess.SessionID,
		"token":     token,
		"expiresAt": sess.ExpiresAt,
	})
}

// DeleteSession handles DELETE /api/v1/session - ends the session and purges its state
func (h *SessionHandlers) DeleteSession(c *gin.Context) {
	sessionID, exists := middleware.GetSessionID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("delete_session_request", sessionID)
	defer marker.Complete()

	if err := h.sessionService.End(c.Request.Context(), sessionID); err != nil {
		marker.SetSuccess(false)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end session"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}
