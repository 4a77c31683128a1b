package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/config"
	"github.com/polkiloo/channelpass/internal/worker"
)

// Module wires runtime components and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		newHTTPServer,
		newDelivery,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type deliveryParams struct {
	fx.In

	Config *config.Config
	Client *telegram.Client
	Poller *worker.UpdatePoller
	Logger *slog.Logger
}

func newDelivery(p deliveryParams) *Delivery {
	return NewDelivery(p.Config, p.Client, p.Poller, p.Logger)
}

// Runner is a background component with explicit start and stop.
type Runner interface {
	Start(ctx context.Context)
	Stop()
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Sweeper    *worker.ExpirySweeper
	Delivery   *Delivery
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting channelpass",
				slog.String("addr", p.Server.Addr),
				slog.String("update_mode", p.Config.UpdateMode),
			)
			runCtx := context.WithoutCancel(ctx)

			if err := p.Delivery.Start(runCtx); err != nil {
				return err
			}
			p.Sweeper.Start(runCtx)

			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Delivery.Stop()
			p.Sweeper.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("channelpass stopped")
			return nil
		},
	})
}
