package telegram

import (
	"context"
	"log/slog"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

// EventDispatcher consumes classified events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev model.Event) error
}

// CallbackAnswerer acknowledges inline button presses.
type CallbackAnswerer interface {
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// UpdateHandler is the parsing boundary between raw updates and the dispatcher.
type UpdateHandler struct {
	dispatcher EventDispatcher
	answerer   CallbackAnswerer
	logger     *slog.Logger
}

// NewUpdateHandler constructs UpdateHandler.
func NewUpdateHandler(dispatcher EventDispatcher, answerer CallbackAnswerer, logger *slog.Logger) *UpdateHandler {
	return &UpdateHandler{dispatcher: dispatcher, answerer: answerer, logger: logger}
}

// Handle processes one update synchronously. Errors are already reported to
// the initiator by the dispatcher, so they are only logged here.
func (h *UpdateHandler) Handle(ctx context.Context, u Update) {
	if cq := u.CallbackQuery; cq != nil && cq.ID != "" {
		if err := h.answerer.AnswerCallbackQuery(ctx, cq.ID, ""); err != nil {
			h.logger.Warn("failed to answer callback query", slog.String("error", err.Error()))
		}
	}

	ev := ParseUpdate(u)
	if ev == nil {
		h.logger.Debug("update ignored", slog.Int("update_id", u.UpdateID))
		return
	}

	if err := h.dispatcher.Dispatch(ctx, ev); err != nil {
		h.logger.Debug("update handled with error",
			slog.Int("update_id", u.UpdateID),
			slog.String("error", err.Error()),
		)
	}
}
