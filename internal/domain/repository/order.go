package repository

import (
	"context"
	"time"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

// OrderSelector picks the order a transition applies to. When ID is set the
// order is matched by identifier, otherwise the most recent order of UserID is
// used. Status is always required.
type OrderSelector struct {
	ID     int64
	UserID int64
	Status model.OrderStatus
}

// TransitionResult describes an applied status transition.
type TransitionResult struct {
	Order *model.Order
	// Shadowed counts other orders that matched the selector but were left untouched.
	Shadowed int
}

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// Create stores a pending order. Returns ErrOrderInProgress when the user
	// already has an open order.
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// LatestByUser returns the most recently created order of the user.
	LatestByUser(ctx context.Context, userID int64) (*model.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	// SelectExpired returns confirmed orders with expires_at <= now, oldest first.
	SelectExpired(ctx context.Context, now time.Time, limit int) ([]model.Order, error)
	// Transition locks the selected order, lets fn mutate it and persists the
	// result only if the stored status is still sel.Status. Any error returned
	// by fn aborts the transition, leaves the order untouched and is returned
	// as is. ErrNotFound is returned when no order matches sel.
	Transition(ctx context.Context, sel OrderSelector, fn func(*model.Order) error) (*TransitionResult, error)
}
