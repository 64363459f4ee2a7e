package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/forms"
	"github.com/nexioai/nexio-ingest/internal/webhook"
)

// FormConfig is the public shape served to the respondent's form
// renderer.
type FormConfig struct {
	TenantName string         `json:"tenant_name"`
	Slug       string         `json:"slug"`
	Questions  []*db.Question `json:"questions"`
}

// GetForm serves a tenant's public form definition. Missing and
// deactivated tenants both return 404 so configuration state does not
// leak to the public internet.
func (h *Handler) GetForm(c *gin.Context) {
	formSlug := c.Param("slug")

	if h.cache != nil {
		var cached FormConfig
		if err := h.cache.GetCachedFormConfig(c.Request.Context(), formSlug, &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	tenant, err := h.repo.GetActiveTenantBySlug(formSlug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found or inactive"})
			return
		}
		h.logger.Error("Failed to resolve form slug", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	questions, err := h.repo.ListQuestions(tenant.ID)
	if err != nil {
		h.logger.Error("Failed to list questions",
			zap.String("tenant_id", tenant.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	cfg := FormConfig{
		TenantName: tenant.Name,
		Slug:       tenant.Slug,
		Questions:  questions,
	}

	if h.cache != nil {
		if err := h.cache.CacheFormConfig(c.Request.Context(), formSlug, cfg, h.config.Redis.CacheTTL); err != nil {
			h.logger.Warn("Failed to cache form config", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, cfg)
}

type SubmitFormRequest struct {
	Answers db.AnswerMap `json:"answers" binding:"required"`
}

// SubmitForm runs the ingestion pipeline. The respondent waits for the
// whole round trip, webhook delivery included.
func (h *Handler) SubmitForm(c *gin.Context) {
	formSlug := c.Param("slug")

	tenant, err := h.repo.GetActiveTenantBySlug(formSlug)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Form not found or inactive"})
			return
		}
		h.logger.Error("Failed to resolve form slug", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	var req SubmitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	resp, err := h.forms.Submit(c.Request.Context(), tenant, req.Answers)
	if err != nil {
		var ve *forms.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": ve.Error(), "field": ve.Field})
			return
		}

		var de *webhook.DeliveryError
		if errors.As(err, &de) {
			// The response is stored; only the delivery leg failed. The
			// caller is told so an operator can fix the automation side.
			c.JSON(http.StatusBadGateway, gin.H{
				"success":     false,
				"message":     err.Error(),
				"response_id": resp.ID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "response_id": resp.ID})
}

// ListResponses serves the tenant dashboard, newest first.
func (h *Handler) ListResponses(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	page, limit := pagination(c)
	offset := (page - 1) * limit

	responses, err := h.repo.ListFormResponses(tenantID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list responses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	total, err := h.repo.CountFormResponses(tenantID)
	if err != nil {
		h.logger.Warn("Failed to count responses", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": responses,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
