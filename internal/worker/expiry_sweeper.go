package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

// ExpiryService exposes the subset of order operations required by the sweeper.
type ExpiryService interface {
	ExpiredBatch(ctx context.Context, limit int) ([]model.Order, error)
	Expire(ctx context.Context, order model.Order) error
}

// ExpirySweeper periodically picks due orders and expires them concurrently.
type ExpirySweeper struct {
	orders    ExpiryService
	interval  time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewExpirySweeper constructs the sweeper worker pool.
func NewExpirySweeper(orders ExpiryService, interval time.Duration, batchSize, workers int, logger *slog.Logger) *ExpirySweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpirySweeper{
		orders:    orders,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
	}
}

// Start launches background sweeping. Calling Start on a running sweeper is a no-op.
func (s *ExpirySweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.jobs = make(chan model.Order, s.batchSize)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx, s.jobs)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx, s.jobs)
}

// Stop cancels sweeping and waits for in-flight expirations to finish.
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *ExpirySweeper) dispatch(ctx context.Context, jobs chan<- model.Order) {
	defer s.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx, jobs)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, jobs)
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context, jobs chan<- model.Order) {
	orders, err := s.orders.ExpiredBatch(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("fetch expired orders failed", slog.String("error", err.Error()))
		}
		return
	}
	if len(orders) > 0 {
		s.logger.Debug("expiring orders", slog.Int("count", len(orders)))
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case jobs <- order:
		}
	}
}

func (s *ExpirySweeper) worker(ctx context.Context, jobs <-chan model.Order) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-jobs:
			if !ok {
				return
			}
			s.expire(ctx, order)
		}
	}
}

func (s *ExpirySweeper) expire(ctx context.Context, order model.Order) {
	if err := s.orders.Expire(ctx, order); err != nil {
		s.logger.Error("expire order failed",
			slog.Int64("order_id", order.ID),
			slog.Int64("user_id", order.UserID),
			slog.String("error", err.Error()))
	}
}
