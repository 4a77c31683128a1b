package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultRetryAfter     = 5 * time.Second
)

var allowedUpdates = []string{"message", "callback_query"}

// TooManyRequestsError represents rate limiting signal from the Bot API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client calls the Telegram Bot API through tgbotapi, adding per-call
// contexts and timeouts.
type Client struct {
	api        *tgbotapi.BotAPI
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a Bot API client for the given token. No request is made.
func NewClient(baseURL, token string, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse telegram api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("telegram api url must be absolute")
	}
	if token == "" {
		return nil, fmt.Errorf("telegram bot token must not be empty")
	}

	httpClient := &http.Client{}
	api := &tgbotapi.BotAPI{Token: token, Client: httpClient}
	// tgbotapi formats the endpoint with token and method.
	base := strings.ReplaceAll(strings.TrimRight(parsed.String(), "/"), "%", "%%")
	api.SetAPIEndpoint(base + "/bot%s/%s")

	return &Client{
		api:        api,
		httpClient: httpClient,
		timeout:    defaultRequestTimeout,
		logger:     logger,
	}, nil
}

// SendMessage sends a text message.
func (c *Client) SendMessage(ctx context.Context, msg tgbotapi.MessageConfig) (Message, error) {
	var sent Message
	err := c.request(ctx, "sendMessage", msg, &sent)
	return sent, err
}

// SendPhoto sends a photo, uploading it when the file is not on Telegram yet.
func (c *Client) SendPhoto(ctx context.Context, photo tgbotapi.PhotoConfig) (Message, error) {
	var sent Message
	err := c.request(ctx, "sendPhoto", photo, &sent)
	return sent, err
}

// AnswerCallbackQuery stops the client side loading indicator of a button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.request(ctx, "answerCallbackQuery", tgbotapi.NewCallback(callbackID, text), nil)
}

// CreateChatInviteLink creates an additional invite link for a chat.
func (c *Client) CreateChatInviteLink(ctx context.Context, cfg tgbotapi.CreateChatInviteLinkConfig) (tgbotapi.ChatInviteLink, error) {
	var link tgbotapi.ChatInviteLink
	err := c.request(ctx, "createChatInviteLink", cfg, &link)
	return link, err
}

// RevokeChatInviteLink revokes an invite link created by the bot.
func (c *Client) RevokeChatInviteLink(ctx context.Context, chatID int64, link string) error {
	cfg := tgbotapi.RevokeChatInviteLinkConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		InviteLink: link,
	}
	return c.request(ctx, "revokeChatInviteLink", cfg, nil)
}

// BanChatMember removes a user from a chat and bans them.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64) error {
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	return c.request(ctx, "banChatMember", cfg, nil)
}

// UnbanChatMember lifts a ban so the user may join again with a new link.
func (c *Client) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	cfg := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		OnlyIfBanned:     true,
	}
	return c.request(ctx, "unbanChatMember", cfg, nil)
}

// GetUpdates long polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(timeout / time.Second)
	cfg.AllowedUpdates = allowedUpdates

	var updates []Update
	err := c.call(ctx, timeout+c.timeout, "getUpdates", func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return api.Request(cfg)
	}, &updates)
	return updates, err
}

// SetWebhook registers the webhook URL and its secret token.
func (c *Client) SetWebhook(ctx context.Context, params WebhookParams) error {
	// secret_token is newer than tgbotapi's WebhookConfig, so the call is built by hand.
	values := tgbotapi.Params{"url": params.URL}
	values.AddNonEmpty("secret_token", params.SecretToken)
	if err := values.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	return c.call(ctx, c.timeout, "setWebhook", func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return api.MakeRequest("setWebhook", values)
	}, nil)
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.request(ctx, "deleteWebhook", tgbotapi.DeleteWebhookConfig{}, nil)
}

func (c *Client) request(ctx context.Context, method string, cfg tgbotapi.Chattable, result any) error {
	return c.call(ctx, c.timeout, method, func(api *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return api.Request(cfg)
	}, result)
}

func (c *Client) call(
	ctx context.Context,
	timeout time.Duration,
	method string,
	send func(*tgbotapi.BotAPI) (*tgbotapi.APIResponse, error),
	result any,
) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := send(c.bot(ctx))
	if err != nil {
		return c.translate(method, err)
	}

	if result == nil || resp == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// bot returns a shallow copy of the API whose requests carry ctx.
func (c *Client) bot(ctx context.Context) *tgbotapi.BotAPI {
	api := *c.api
	api.Client = contextDoer{ctx: ctx, next: c.httpClient}
	return &api
}

func (c *Client) translate(method string, err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	if apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0 {
		retryAfter := defaultRetryAfter
		if apiErr.RetryAfter > 0 {
			retryAfter = time.Duration(apiErr.RetryAfter) * time.Second
		}
		return TooManyRequestsError{RetryAfter: retryAfter}
	}

	c.logger.Debug("telegram request rejected",
		slog.String("method", method),
		slog.Int("code", apiErr.Code),
		slog.String("description", apiErr.Message),
	)
	return fmt.Errorf("telegram %s: %d %w", method, apiErr.Code, err)
}

// contextDoer binds outgoing requests to a context. tgbotapi builds its
// requests without one.
type contextDoer struct {
	ctx  context.Context
	next *http.Client
}

func (d contextDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.next.Do(req.WithContext(d.ctx))
	if err != nil {
		// url.Error carries the request URL, which embeds the bot token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
	}
	return resp, err
}
