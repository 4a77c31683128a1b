package telegram

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/channelpass/internal/config"
	"github.com/polkiloo/channelpass/internal/dispatch"
	"github.com/polkiloo/channelpass/internal/usecase"
)

// Module exposes the Bot API client and the adapters built on it.
var Module = fx.Options(
	fx.Provide(newClient),
	fx.Provide(newIssuer),
	fx.Provide(newNotifier),
	fx.Provide(newUpdateHandler),
)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (*Client, error) {
	return NewClient(p.Config.TelegramAPIURL, p.Config.BotToken, p.Logger)
}

func newIssuer(client *Client, cfg *config.Config) usecase.GrantIssuer {
	return NewInviteIssuer(client, cfg.TargetChatID)
}

func newNotifier(client *Client, cfg *config.Config) (usecase.Notifier, error) {
	return NewNotifier(client, cfg.AdminID, cfg.PaymentAccount)
}

func newUpdateHandler(d *dispatch.Dispatcher, client *Client, logger *slog.Logger) *UpdateHandler {
	return NewUpdateHandler(d, client, logger)
}
