package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/config"
	"github.com/polkiloo/channelpass/internal/usecase"
)

// Module provides the background workers. Starting them is left to the app lifecycle.
var Module = fx.Provide(
	newExpirySweeper,
	newUpdatePoller,
)

type sweeperParams struct {
	fx.In

	Orders *usecase.OrderUseCase
	Config *config.Config
	Logger *slog.Logger
}

func newExpirySweeper(p sweeperParams) *ExpirySweeper {
	return NewExpirySweeper(
		p.Orders,
		p.Config.ExpirySweepInterval,
		p.Config.SweepBatchSize,
		p.Config.WorkerPoolSize,
		p.Logger,
	)
}

type pollerParams struct {
	fx.In

	Client  *telegram.Client
	Handler *telegram.UpdateHandler
	Config  *config.Config
	Logger  *slog.Logger
}

func newUpdatePoller(p pollerParams) *UpdatePoller {
	return NewUpdatePoller(p.Client, p.Handler, p.Config.PollTimeout, p.Config.WorkerPoolSize, p.Logger)
}
