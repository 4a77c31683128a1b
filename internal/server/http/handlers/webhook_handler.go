package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
)

// WebhookHandler receives updates pushed by the Bot API.
type WebhookHandler struct {
	updates UpdateHandler
	logger  *slog.Logger
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(updates UpdateHandler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{updates: updates, logger: logger}
}

// Receive handles POST /telegram/webhook. The update is processed before
// replying so the Bot API does not deliver the next one concurrently; the
// reply is 200 even when processing failed, otherwise the update is redelivered.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("malformed webhook update",
			slog.String("request_id", RequestID(c)),
			slog.String("error", err.Error()),
		)
		c.Status(http.StatusBadRequest)
		return
	}

	h.updates.Handle(context.WithoutCancel(c.Request.Context()), update)
	c.Status(http.StatusOK)
}
