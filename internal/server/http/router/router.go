package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/channelpass/internal/server/http/handlers"
	"github.com/polkiloo/channelpass/internal/server/http/middleware"
)

// WebhookPath is where the Bot API delivers updates in webhook mode.
const WebhookPath = "/telegram/webhook"

// Dependencies groups collaborators the routes are built from. A nil Auditor
// leaves the audit API unmounted.
type Dependencies struct {
	Updates       handlers.UpdateHandler
	Orders        handlers.OrderLister
	Health        handlers.HealthChecker
	Auditor       middleware.CredentialsChecker
	WebhookSecret string
}

// Setup configures gin router with handlers and middleware.
func Setup(deps Dependencies, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))

	webhookHandler := handlers.NewWebhookHandler(deps.Updates, logger)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	engine.GET("/healthz", healthHandler.Check)
	engine.POST(WebhookPath, middleware.WebhookSecret(deps.WebhookSecret), webhookHandler.Receive)

	if deps.Auditor == nil {
		logger.Info("audit api disabled: no password hash configured")
		return engine
	}

	orderHandler := handlers.NewOrderHandler(deps.Orders, logger)
	api := engine.Group("/api")
	api.Use(middleware.BasicAuthRequired(deps.Auditor))
	api.GET("/orders/:userID", orderHandler.List)
	api.GET("/orders/by-id/:orderID", orderHandler.Get)

	return engine
}
