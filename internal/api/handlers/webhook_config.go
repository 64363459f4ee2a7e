package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/webhook"
)

func (h *Handler) GetWebhookConfig(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	cfg, err := h.repo.GetWebhookConfig(tenantID)
	if err != nil {
		h.logger.Error("Failed to get webhook config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

type WebhookConfigRequest struct {
	WebhookURL    *string `json:"webhook_url" binding:"omitempty,url"`
	WebhookSecret *string `json:"webhook_secret"`
	AuthType      string  `json:"auth_type" binding:"omitempty,oneof=secret basic bearer"`
	IsActive      *bool   `json:"is_active" binding:"required"`
}

// UpdateWebhookConfig upserts the tenant's delivery target. The row is
// created on first save and only ever deactivated afterwards.
func (h *Handler) UpdateWebhookConfig(c *gin.Context) {
	var req WebhookConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := c.GetString("tenant_id")

	authType := db.AuthTypeSecret
	if req.AuthType != "" {
		authType = db.AuthType(req.AuthType)
	}

	cfg := &db.WebhookConfig{
		TenantID:      tenantID,
		WebhookURL:    req.WebhookURL,
		WebhookSecret: req.WebhookSecret,
		AuthType:      authType,
		IsActive:      *req.IsActive,
		UpdatedAt:     time.Now(),
	}

	if err := h.repo.UpsertWebhookConfig(cfg); err != nil {
		h.logger.Error("Failed to save webhook config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save webhook config"})
		return
	}

	h.logger.Info("Webhook config updated",
		zap.String("tenant_id", tenantID),
		zap.Bool("is_active", cfg.IsActive),
	)

	c.JSON(http.StatusOK, cfg)
}

// TestWebhook sends a synthetic payload through the same delivery
// client as real submissions and records the outcome on the config.
// No form response is created.
func (h *Handler) TestWebhook(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	cfg, err := h.repo.GetWebhookConfig(tenantID)
	if err != nil {
		h.logger.Error("Failed to get webhook config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if cfg == nil || cfg.WebhookURL == nil || *cfg.WebhookURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook is not configured"})
		return
	}
	if !cfg.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook is disabled"})
		return
	}

	payload := &webhook.Payload{
		ResponseID: uuid.New().String(),
		TenantID:   tenantID,
		Answers: db.AnswerMap{
			"message": db.TextAnswer("This is a webhook test from Nexio"),
		},
		SubmittedAt: time.Now().UTC(),
		Test:        true,
	}

	now := time.Now().UTC()
	status := db.TestStatusSuccess
	deliveryErr := h.webhook.Deliver(c.Request.Context(), cfg, payload)
	if deliveryErr != nil {
		status = db.TestStatusFailure
	}

	if err := h.repo.UpdateWebhookTest(tenantID, now, status); err != nil {
		h.logger.Error("Failed to record webhook test", zap.Error(err))
	}

	if deliveryErr != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": deliveryErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
