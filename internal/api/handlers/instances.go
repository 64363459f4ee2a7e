package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/db"
)

type InstanceRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=255"`
	URL           string `json:"url" binding:"required,url"`
	APIKey        string `json:"api_key"`
	Active        *bool  `json:"active" binding:"required"`
	CheckInterval int    `json:"check_interval" binding:"omitempty,min=60,max=86400"`
}

func (h *Handler) ListInstances(c *gin.Context) {
	instances, err := h.repo.ListInstances()
	if err != nil {
		h.logger.Error("Failed to list instances", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"instances": instances})
}

func (h *Handler) CreateInstance(c *gin.Context) {
	if h.cipher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitor is disabled"})
		return
	}

	var req InstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API key is required"})
		return
	}

	encrypted, err := h.cipher.Encrypt(req.APIKey)
	if err != nil {
		h.logger.Error("Failed to encrypt API key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credential"})
		return
	}

	interval := req.CheckInterval
	if interval == 0 {
		interval = 300
	}

	instance := &db.AutomationInstance{
		ID:              uuid.New().String(),
		Name:            req.Name,
		URL:             req.URL,
		APIKeyEncrypted: encrypted,
		Active:          *req.Active,
		CheckInterval:   interval,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := h.repo.CreateInstance(instance); err != nil {
		h.logger.Error("Failed to create instance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create instance"})
		return
	}

	h.logger.Info("Automation instance registered",
		zap.String("instance_id", instance.ID),
		zap.String("name", instance.Name),
	)

	c.JSON(http.StatusCreated, instance)
}

func (h *Handler) UpdateInstance(c *gin.Context) {
	if h.cipher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitor is disabled"})
		return
	}

	instanceID := c.Param("id")

	instance, err := h.repo.GetInstance(instanceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Instance not found"})
			return
		}
		h.logger.Error("Failed to get instance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req InstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance.Name = req.Name
	instance.URL = req.URL
	instance.Active = *req.Active
	if req.CheckInterval != 0 {
		instance.CheckInterval = req.CheckInterval
	}
	instance.UpdatedAt = time.Now()

	// Re-saving with a new key also upgrades legacy base64 credentials
	// to encrypted storage.
	if req.APIKey != "" {
		encrypted, err := h.cipher.Encrypt(req.APIKey)
		if err != nil {
			h.logger.Error("Failed to encrypt API key", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credential"})
			return
		}
		instance.APIKeyEncrypted = encrypted
	}

	if err := h.repo.UpdateInstance(instance); err != nil {
		h.logger.Error("Failed to update instance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update instance"})
		return
	}

	c.JSON(http.StatusOK, instance)
}
