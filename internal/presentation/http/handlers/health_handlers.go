package handlers

import (
	"net/http"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/container"
	"github.com/gin-gonic/gin"
)

// HealthHandlers reports service liveness and backing store reachability
type HealthHandlers struct {
	container *container.Container
}

// NewHealthHandlers creates new health handlers
func NewHealthHandlers(container *container.Container) *HealthHandlers {
	return &HealthHandlers{
		container: container,
	}
}

// GetHealth handles GET /api/v1/health
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	status := "ok"
	storeStatus := "ok"

	if err := h.container.Store.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		storeStatus = err.Error()
	}

	httpStatus := http.StatusOK
	if status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"store":     storeStatus,
		"sessions":  h.container.CacheManager.SessionCount(),
		"timestamp": time.Now().UTC(),
	})
}
