package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/app"
	"github.com/polkiloo/channelpass/internal/config"
	"github.com/polkiloo/channelpass/internal/dispatch"
	"github.com/polkiloo/channelpass/internal/logger"
	"github.com/polkiloo/channelpass/internal/pkg/auth"
	"github.com/polkiloo/channelpass/internal/server/http/router"
	"github.com/polkiloo/channelpass/internal/storage/postgres"
	"github.com/polkiloo/channelpass/internal/usecase"
	"github.com/polkiloo/channelpass/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		telegram.Module,
		usecase.Module,
		dispatch.Module,
		worker.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
