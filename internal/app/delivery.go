package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/config"
)

// WebhookRegistrar switches the Bot API between webhook and getUpdates delivery.
type WebhookRegistrar interface {
	SetWebhook(ctx context.Context, params telegram.WebhookParams) error
	DeleteWebhook(ctx context.Context) error
}

// Delivery selects how updates reach the bot: pushed to the webhook route or
// pulled by the long-poll worker.
type Delivery struct {
	mode    string
	url     string
	secret  string
	webhook WebhookRegistrar
	poller  Runner
	logger  *slog.Logger

	mu      sync.Mutex
	polling bool
}

// NewDelivery constructs Delivery from configuration.
func NewDelivery(cfg *config.Config, webhook WebhookRegistrar, poller Runner, logger *slog.Logger) *Delivery {
	return &Delivery{
		mode:    cfg.UpdateMode,
		url:     cfg.WebhookURL,
		secret:  cfg.WebhookSecret,
		webhook: webhook,
		poller:  poller,
		logger:  logger,
	}
}

// Start registers the webhook or, in polling mode, removes it and starts polling.
func (d *Delivery) Start(ctx context.Context) error {
	switch d.mode {
	case config.UpdateModePolling:
		if err := d.webhook.DeleteWebhook(ctx); err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		d.mu.Lock()
		d.poller.Start(ctx)
		d.polling = true
		d.mu.Unlock()
		d.logger.Info("polling for updates")
		return nil
	case config.UpdateModeWebhook:
		if d.url == "" {
			d.logger.Warn("webhook url not configured, relying on an existing registration")
			if d.secret == "" {
				d.logger.Warn("webhook secret not configured, webhook route is unauthenticated")
			}
			return nil
		}
		if err := d.webhook.SetWebhook(ctx, telegram.WebhookParams{URL: d.url, SecretToken: d.secret}); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		d.logger.Info("webhook registered", slog.String("url", d.url))
		return nil
	default:
		return fmt.Errorf("unknown update mode %q", d.mode)
	}
}

// Stop halts polling if it was started.
func (d *Delivery) Stop() {
	d.mu.Lock()
	polling := d.polling
	d.polling = false
	d.mu.Unlock()

	if polling {
		d.poller.Stop()
	}
}
