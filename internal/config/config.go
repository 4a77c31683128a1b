package config

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Update delivery modes.
const (
	UpdateModeWebhook = "webhook"
	UpdateModePolling = "polling"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	BotToken       string `env:"BOT_TOKEN"`
	AdminID        int64  `env:"ADMIN_ID"`
	TargetChatID   int64  `env:"TARGET_CHAT_ID"`
	PaymentAccount string `env:"KPAY_NUMBER" envDefault:"09799766739"`
	DatabaseURI    string `env:"DATABASE_URI"`

	RunAddress     string `env:"RUN_ADDRESS" envDefault:":8080"`
	TelegramAPIURL string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	UpdateMode     string `env:"UPDATE_MODE" envDefault:"webhook"`
	WebhookURL     string `env:"WEBHOOK_URL"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`

	ExpirySweepInterval time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"1m"`
	SweepBatchSize      int           `env:"SWEEP_BATCH_SIZE" envDefault:"32"`
	WorkerPoolSize      int           `env:"WORKER_POOL_SIZE" envDefault:"2"`
	PollTimeout         time.Duration `env:"POLL_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout     time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	AuditUser         string `env:"AUDIT_USER" envDefault:"admin"`
	AuditPasswordHash string `env:"AUDIT_PASSWORD_HASH"`

	LogLevel slog.Level `env:"-"`
}

const (
	defaultExpirySweepInterval = time.Minute
	defaultSweepBatchSize      = 32
	defaultWorkerPoolSize      = 2
	defaultPollTimeout         = 30 * time.Second
	defaultShutdownTimeout     = 10 * time.Second
)

// Load parses configuration from environment variables and flags.
func Load() (*Config, error) {
	return load(os.Args[1:], env.ToMap(os.Environ()))
}

func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("channelpass", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		sweepIntervalStr   = cfg.ExpirySweepInterval.String()
		pollTimeoutStr     = cfg.PollTimeout.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.BotToken, "token", cfg.BotToken, "Telegram bot token")
	fs.Int64Var(&cfg.AdminID, "admin", cfg.AdminID, "Approver chat id")
	fs.Int64Var(&cfg.TargetChatID, "chat", cfg.TargetChatID, "Restricted channel id")
	fs.StringVar(&cfg.PaymentAccount, "pay-to", cfg.PaymentAccount, "Payment account shown to users")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.TelegramAPIURL, "api", cfg.TelegramAPIURL, "Telegram Bot API base URL")
	fs.StringVar(&cfg.UpdateMode, "mode", cfg.UpdateMode, "Update delivery: webhook or polling")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "Public webhook URL registered on start")
	fs.StringVar(&cfg.WebhookSecret, "webhook-secret", cfg.WebhookSecret, "Webhook secret token")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between expiry sweeps")
	fs.IntVar(&cfg.SweepBatchSize, "sweep-batch", cfg.SweepBatchSize, "Maximum orders per expiry sweep")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent expiry workers")
	fs.StringVar(&pollTimeoutStr, "poll-timeout", pollTimeoutStr, "Long poll timeout")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ExpirySweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.PollTimeout, err = time.ParseDuration(pollTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid poll timeout: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if hashFile := environ["AUDIT_PASSWORD_HASH_FILE"]; hashFile != "" {
		content, err := os.ReadFile(hashFile)
		if err != nil {
			return nil, fmt.Errorf("read audit password hash file: %w", err)
		}
		cfg.AuditPasswordHash = strings.TrimSpace(string(content))
	}

	if level := environ["LOG_LEVEL"]; level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ExpirySweepInterval <= 0 {
		cfg.ExpirySweepInterval = defaultExpirySweepInterval
	}

	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.UpdateMode = strings.ToLower(strings.TrimSpace(cfg.UpdateMode))
	if cfg.UpdateMode != UpdateModeWebhook && cfg.UpdateMode != UpdateModePolling {
		return nil, fmt.Errorf("unknown update mode %q", cfg.UpdateMode)
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token must be provided")
	}

	if cfg.AdminID == 0 {
		return nil, fmt.Errorf("admin id must be provided")
	}

	if cfg.TargetChatID == 0 {
		return nil, fmt.Errorf("target chat id must be provided")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.UpdateMode == UpdateModeWebhook && cfg.WebhookURL != "" && cfg.WebhookSecret == "" {
		if cfg.WebhookSecret, err = generateSecret(); err != nil {
			return nil, fmt.Errorf("generate webhook secret: %w", err)
		}
	}

	return cfg, nil
}

// generateSecret returns a random token using only characters the Bot API
// accepts in secret_token.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
