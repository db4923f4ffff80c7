package middleware

import (
	"net/http"
	"strings"

	"github.com/VendorLens/vendorlens-go/internal/application/services"
	"github.com/gin-gonic/gin"
)

const sessionIDKey = "sessionId"

// SessionHeader carries the browser session ID on every state request.
const SessionHeader = "X-VendorLens-Session-ID"

// SessionMiddleware authenticates the browser session for all state routes.
// Requests must carry the session ID header and a bearer token minted by the
// session registration endpoint, and the two must agree.
func SessionMiddleware(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required"})
			c.Abort()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" || !sessionService.Validate(sessionID, token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			c.Abort()
			return
		}

		sessionService.Touch(sessionID)
		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID retrieves the authenticated session ID from the gin context.
func GetSessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(sessionIDKey)
	if !exists {
		return "", false
	}
	sessionID, ok := value.(string)
	return sessionID, ok && sessionID != ""
}

func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return header[7:]
	}
	return ""
}
