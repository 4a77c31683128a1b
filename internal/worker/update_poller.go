package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
)

const (
	defaultRetryDelay = 3 * time.Second
	shardQueueSize    = 16
)

// UpdateSource fetches pending updates with long polling.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]telegram.Update, error)
}

// UpdateHandler consumes a single update.
type UpdateHandler interface {
	Handle(ctx context.Context, u telegram.Update)
}

// UpdatePoller long-polls the Bot API and fans updates out to a fixed set of
// shards keyed by sender. Updates of one user are handled in arrival order,
// different users proceed in parallel.
type UpdatePoller struct {
	source     UpdateSource
	handler    UpdateHandler
	timeout    time.Duration
	shards     int
	retryDelay time.Duration
	logger     *slog.Logger

	wg      sync.WaitGroup
	workers sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewUpdatePoller constructs UpdatePoller.
func NewUpdatePoller(source UpdateSource, handler UpdateHandler, timeout time.Duration, shards int, logger *slog.Logger) *UpdatePoller {
	if timeout < 0 {
		timeout = 0
	}
	if shards <= 0 {
		shards = 1
	}
	return &UpdatePoller{
		source:     source,
		handler:    handler,
		timeout:    timeout,
		shards:     shards,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// Start launches the polling loop and its shard workers. Calling Start on a
// running poller is a no-op.
func (p *UpdatePoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	queues := make([]chan telegram.Update, p.shards)
	for i := range queues {
		queues[i] = make(chan telegram.Update, shardQueueSize)
		p.workers.Add(1)
		// Workers keep the caller's context so queued updates finish after Stop.
		go p.worker(ctx, queues[i])
	}

	p.wg.Add(1)
	go p.run(runCtx, queues)
}

// Stop cancels polling and waits until every queued update is handled.
func (p *UpdatePoller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.workers.Wait()
}

func (p *UpdatePoller) run(ctx context.Context, queues []chan telegram.Update) {
	defer p.wg.Done()
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	var offset int
	for ctx.Err() == nil {
		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !sleepCtx(ctx, p.backoff(err)) {
				return
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if !p.enqueue(ctx, queues, u) {
				// Unconfirmed updates are redelivered by the next getUpdates call.
				p.logger.Warn("poller stopped before update was queued", slog.Int("update_id", u.UpdateID))
				return
			}
		}
	}
}

func (p *UpdatePoller) enqueue(ctx context.Context, queues []chan telegram.Update, u telegram.Update) bool {
	q := queues[shardFor(telegram.SenderID(u), len(queues))]
	select {
	case q <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *UpdatePoller) worker(ctx context.Context, updates <-chan telegram.Update) {
	defer p.workers.Done()
	for u := range updates {
		p.handler.Handle(ctx, u)
	}
}

func (p *UpdatePoller) backoff(err error) time.Duration {
	var rateErr telegram.TooManyRequestsError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		p.logger.Warn("bot api rate limited", slog.Duration("retry_after", rateErr.RetryAfter))
		return rateErr.RetryAfter
	}
	p.logger.Error("get updates failed", slog.String("error", err.Error()))
	return p.retryDelay
}

// shardFor maps a sender to a shard; updates without a sender share shard 0.
func shardFor(senderID int64, shards int) int {
	if senderID <= 0 {
		return 0
	}
	return int(senderID % int64(shards))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
