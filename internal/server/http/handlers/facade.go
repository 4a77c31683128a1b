package handlers

import (
	"context"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
	"github.com/polkiloo/channelpass/internal/domain/model"
)

// UpdateHandler consumes decoded Bot API updates.
type UpdateHandler interface {
	Handle(ctx context.Context, u telegram.Update)
}

// OrderLister exposes the order history used by the audit endpoints.
type OrderLister interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	OrderByID(ctx context.Context, id int64) (*model.Order, error)
}

// HealthChecker reports whether the storage answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
