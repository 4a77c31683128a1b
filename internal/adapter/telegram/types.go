package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Bot API types shared with the HTTP entrypoint and the poller.
type (
	Update        = tgbotapi.Update
	Message       = tgbotapi.Message
	User          = tgbotapi.User
	Chat          = tgbotapi.Chat
	PhotoSize     = tgbotapi.PhotoSize
	CallbackQuery = tgbotapi.CallbackQuery
)

// WebhookParams are the arguments of setWebhook the bot uses.
type WebhookParams struct {
	URL         string
	SecretToken string
}
