package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/db"
)

func (h *Handler) ListAutomationErrors(c *gin.Context) {
	page, limit := pagination(c)

	filters := db.ErrorFilters{
		InstanceID: c.Query("instance_id"),
		Resolved:   c.Query("resolved"),
		Severity:   c.Query("severity"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	records, err := h.repo.ListAutomationErrors(filters)
	if err != nil {
		h.logger.Error("Failed to list automation errors", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"errors": records,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
		},
	})
}

func (h *Handler) ResolveAutomationError(c *gin.Context) {
	errorID := c.Param("id")

	if err := h.repo.ResolveError(errorID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Error record not found"})
			return
		}
		h.logger.Error("Failed to resolve error record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
