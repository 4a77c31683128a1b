package dispatch

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/channelpass/internal/pkg/auth"
	"github.com/polkiloo/channelpass/internal/usecase"
)

// Module provides the event dispatcher.
var Module = fx.Provide(newDispatcher)

func newDispatcher(orders *usecase.OrderUseCase, approver auth.Approver, notifier usecase.Notifier, logger *slog.Logger) *Dispatcher {
	return NewDispatcher(orders, approver, notifier, logger)
}
