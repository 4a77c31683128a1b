package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/config"
	"github.com/polkiloo/channelpass/internal/pkg/auth"
	"github.com/polkiloo/channelpass/internal/storage/postgres"
	"github.com/polkiloo/channelpass/internal/usecase"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(newEngine)

type engineParams struct {
	fx.In

	Config      *config.Config
	Logger      *slog.Logger
	Updates     *telegram.UpdateHandler
	Orders      *usecase.OrderUseCase
	Storage     *postgres.Storage
	Credentials *auth.BasicCredentials
}

func newEngine(p engineParams) *gin.Engine {
	deps := Dependencies{
		Updates:       p.Updates,
		Orders:        p.Orders,
		Health:        p.Storage,
		WebhookSecret: p.Config.WebhookSecret,
	}
	if p.Credentials != nil {
		deps.Auditor = p.Credentials
	}
	return Setup(deps, p.Logger)
}
