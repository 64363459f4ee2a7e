package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncMonitor runs one sweep across all active automation instances.
// The run reports per-instance outcomes and succeeds as a whole even
// when individual instances fail.
func (h *Handler) SyncMonitor(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitor is disabled"})
		return
	}

	results, err := h.monitor.Sweep(c.Request.Context())
	if err != nil {
		h.logger.Error("Monitor sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
