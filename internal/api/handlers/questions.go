package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/forms"
)

type QuestionRequest struct {
	Label      string   `json:"label" binding:"required,min=1,max=500"`
	FieldKey   string   `json:"field_key" binding:"required,min=1,max=100"`
	Type       string   `json:"question_type" binding:"required,oneof=text textarea select multiselect radio checkbox"`
	Options    []string `json:"options"`
	IsRequired bool     `json:"is_required"`
	OrderIndex int      `json:"order_index"`
}

func (h *Handler) ListQuestions(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	questions, err := h.repo.ListQuestions(tenantID)
	if err != nil {
		h.logger.Error("Failed to list questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *Handler) CreateQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := c.GetString("tenant_id")

	question := &db.Question{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Label:      req.Label,
		FieldKey:   req.FieldKey,
		Type:       db.QuestionType(req.Type),
		Options:    req.Options,
		IsRequired: req.IsRequired,
		OrderIndex: req.OrderIndex,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := forms.ValidateQuestion(question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taken, err := h.repo.FieldKeyExists(tenantID, req.FieldKey, question.ID)
	if err != nil {
		h.logger.Error("Failed to check field key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Field key already in use"})
		return
	}

	if err := h.repo.CreateQuestion(question); err != nil {
		h.logger.Error("Failed to create question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.invalidateFormCache(c, tenantID)
	c.JSON(http.StatusCreated, question)
}

func (h *Handler) UpdateQuestion(c *gin.Context) {
	questionID := c.Param("id")
	tenantID := c.GetString("tenant_id")

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := &db.Question{
		ID:         questionID,
		TenantID:   tenantID,
		Label:      req.Label,
		FieldKey:   req.FieldKey,
		Type:       db.QuestionType(req.Type),
		Options:    req.Options,
		IsRequired: req.IsRequired,
		OrderIndex: req.OrderIndex,
		UpdatedAt:  time.Now(),
	}

	if err := forms.ValidateQuestion(question); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taken, err := h.repo.FieldKeyExists(tenantID, req.FieldKey, questionID)
	if err != nil {
		h.logger.Error("Failed to check field key", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Field key already in use"})
		return
	}

	if err := h.repo.UpdateQuestion(question); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
			return
		}
		h.logger.Error("Failed to update question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update question"})
		return
	}

	h.invalidateFormCache(c, tenantID)
	c.JSON(http.StatusOK, question)
}

func (h *Handler) DeleteQuestion(c *gin.Context) {
	questionID := c.Param("id")
	tenantID := c.GetString("tenant_id")

	if err := h.repo.DeleteQuestion(questionID, tenantID); err != nil {
		h.logger.Error("Failed to delete question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	h.invalidateFormCache(c, tenantID)
	c.JSON(http.StatusNoContent, nil)
}

func (h *Handler) invalidateFormCache(c *gin.Context, tenantID string) {
	if h.cache == nil {
		return
	}
	tenant, err := h.repo.GetTenant(tenantID)
	if err != nil {
		// Leaves a stale config cached until the TTL expires.
		h.logger.Warn("Failed to resolve tenant for cache invalidation",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return
	}
	if err := h.cache.InvalidateFormConfig(c.Request.Context(), tenant.Slug); err != nil {
		h.logger.Warn("Failed to invalidate form cache",
			zap.String("slug", tenant.Slug),
			zap.Error(err),
		)
	}
}
