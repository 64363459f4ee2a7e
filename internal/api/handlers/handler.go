package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nexioai/nexio-ingest/internal/config"
	"github.com/nexioai/nexio-ingest/internal/db"
	"github.com/nexioai/nexio-ingest/internal/forms"
	"github.com/nexioai/nexio-ingest/internal/monitor"
	"github.com/nexioai/nexio-ingest/internal/secrets"
	"github.com/nexioai/nexio-ingest/internal/storage/redis"
	"github.com/nexioai/nexio-ingest/internal/webhook"
	"go.uber.org/zap"
)

type Handler struct {
	repo    *db.Repository
	forms   *forms.Service
	monitor *monitor.Service
	webhook *webhook.Client
	cipher  *secrets.Cipher
	cache   *redis.Client
	config  *config.Config
	logger  *zap.Logger
}

func NewHandler(
	repo *db.Repository,
	formsService *forms.Service,
	monitorService *monitor.Service,
	webhookClient *webhook.Client,
	cipher *secrets.Cipher,
	cache *redis.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		repo:    repo,
		forms:   formsService,
		monitor: monitorService,
		webhook: webhookClient,
		cipher:  cipher,
		cache:   cache,
		config:  cfg,
		logger:  logger,
	}
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
