package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nexioai/nexio-ingest/internal/api/handlers"
	"github.com/nexioai/nexio-ingest/internal/api/middleware"
	"github.com/nexioai/nexio-ingest/internal/config"
)

type Server struct {
	Config  *config.Config
	Router  *gin.Engine
	Handler *handlers.Handler
}

func NewServer(cfg *config.Config, handler *handlers.Handler, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	server := &Server{
		Config:  cfg,
		Router:  router,
		Handler: handler,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	h := s.Handler

	// Ops
	s.Router.GET("/health", h.Health)
	s.Router.GET("/ready", h.Ready)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes
	auth := s.Router.Group("/api/v1/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}

	// Public form surface, rate limited per slug
	public := s.Router.Group("/api/v1/forms")
	public.Use(middleware.RateLimit(s.Config.RateLimit.RequestsPerSecond, s.Config.RateLimit.Burst))
	{
		public.GET("/:slug", h.GetForm)
		public.POST("/:slug/responses", h.SubmitForm)
	}

	// Cron-triggered monitor sweep, guarded by a shared secret
	cron := s.Router.Group("/api/v1/cron")
	cron.Use(middleware.CronAuth(s.Config.Monitor.CronSecret))
	{
		cron.POST("/monitor-sync", h.SyncMonitor)
	}

	// Tenant routes (protected)
	apiGroup := s.Router.Group("/api/v1")
	apiGroup.Use(middleware.AuthRequired(s.Config.JWT.Secret))
	{
		apiGroup.GET("/questions", h.ListQuestions)
		apiGroup.POST("/questions", h.CreateQuestion)
		apiGroup.PUT("/questions/:id", h.UpdateQuestion)
		apiGroup.DELETE("/questions/:id", h.DeleteQuestion)

		apiGroup.GET("/webhook-config", h.GetWebhookConfig)
		apiGroup.PATCH("/webhook-config", h.UpdateWebhookConfig)
		apiGroup.POST("/webhook-config/test", h.TestWebhook)

		apiGroup.GET("/responses", h.ListResponses)

		apiGroup.GET("/instances", h.ListInstances)
		apiGroup.POST("/instances", h.CreateInstance)
		apiGroup.PUT("/instances/:id", h.UpdateInstance)

		apiGroup.GET("/errors", h.ListAutomationErrors)
		apiGroup.PATCH("/errors/:id/resolve", h.ResolveAutomationError)

		apiGroup.POST("/monitor/sync", h.SyncMonitor)
	}
}
