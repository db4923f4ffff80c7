package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/container"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/messaging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/security"
	"github.com/VendorLens/vendorlens-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var opsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
	},
}

// OpsHandlers handles ops dashboard authentication and data streaming
type OpsHandlers struct {
	container *container.Container
}

// NewOpsHandlers creates new ops handlers
func NewOpsHandlers(container *container.Container) *OpsHandlers {
	return &OpsHandlers{
		container: container,
	}
}

// AuthCheck reports whether an ops password is configured and whether the
// caller's token is currently valid.
func (h *OpsHandlers) AuthCheck(c *gin.Context) {
	response := map[string]any{
		"passwordRequired": config.OpsPasswordHash != "",
		"authenticated":    false,
	}
	if config.OpsPasswordHash == "" {
		response["message"] = "Set OPS_PASSWORD_HASH to protect the ops console"
	}

	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		if claims, err := security.ValidateJWT(auth[7:], config.JWTSecret); err == nil && security.IsOpsClaims(claims) {
			response["authenticated"] = true
		}
	}

	c.JSON(http.StatusOK, response)
}

// Login handles ops console authentication
func (h *OpsHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if config.OpsPasswordHash == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": "no-auth-required"})
		return
	}
	if !security.VerifyOpsPassword(request.Password, config.OpsPasswordHash) {
		h.container.Logger.Auth().Warn("Ops login rejected", "remoteAddr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := security.GenerateOpsToken(config.JWTSecret, time.Hour)
	if err != nil {
		h.container.Logger.Auth().Error("Ops token generation failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// OpsAuthMiddleware protects ops-specific endpoints.
func (h *OpsHandlers) OpsAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OpsPasswordHash == "" {
			c.Next() // No password set, allow access
			return
		}

		authHeader := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[7:]
		}

		claims, err := security.ValidateJWT(token, config.JWTSecret)
		if err != nil || !security.IsOpsClaims(claims) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSessions fetches a live activity snapshot from the cache manager.
func (h *OpsHandlers) GetSessions(c *gin.Context) {
	broadcaster := h.container.OpsBroadcaster
	if broadcaster == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ops broadcaster not available"})
		return
	}
	c.JSON(http.StatusOK, broadcaster.BuildActivityPayload())
}

// GetStats returns aggregate performance numbers from the tracker.
func (h *OpsHandlers) GetStats(c *gin.Context) {
	tracker := h.container.PerfTracker
	if tracker == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Performance tracker not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":    tracker.GetOverallStats(),
		"snapshot": tracker.TakeSnapshot(),
	})
}

// StreamActivity handles the websocket connection feeding the ops console
// its periodic session activity ticks.
func (h *OpsHandlers) StreamActivity(c *gin.Context) {
	broadcaster := h.container.OpsBroadcaster
	if broadcaster == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ops broadcaster not available"})
		return
	}

	conn, err := opsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.System().Error("Ops websocket upgrade failed", "error", err.Error())
		return
	}

	client := &messaging.OpsClient{
		Conn: conn,
		Send: make(chan []byte, 8),
	}
	broadcaster.Register(client)

	// Reader detects the close; writer drains the send channel.
	go func() {
		defer func() {
			broadcaster.Unregister(client)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()
}

// StreamLogs handles the SSE connection for live log streaming.
func (h *OpsHandlers) StreamLogs(c *gin.Context) {
	broadcaster := h.container.LogBroadcaster
	if broadcaster == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Log broadcaster not available"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	channelFilter := c.DefaultQuery("channel", "all")
	levelFilter := c.DefaultQuery("level", "INFO")
	var logLevel slog.Level
	switch levelFilter {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "INFO":
		logLevel = slog.LevelInfo
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	filters := logging.AppliedFilters{
		Channel: logging.Channel(channelFilter),
		Level:   logLevel,
	}

	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetLogLevels handles GET /api/ops/logs/levels - returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}
	c.JSON(http.StatusOK, logger.GetChannelLevels())
}

// SetLogLevel handles POST /api/ops/logs/levels - sets the log level for a specific channel.
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}

	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var level slog.Level
	switch req.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
