package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes subscription order lifecycle.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "PENDING"
	OrderStatusAwaitingConfirmation OrderStatus = "AWAITING_CONFIRMATION"
	OrderStatusConfirmed            OrderStatus = "CONFIRMED"
	OrderStatusRejected             OrderStatus = "REJECTED"
	OrderStatusExpired              OrderStatus = "EXPIRED"
)

var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:              {OrderStatusAwaitingConfirmation, OrderStatusRejected},
	OrderStatusAwaitingConfirmation: {OrderStatusConfirmed, OrderStatusRejected},
	OrderStatusConfirmed:            {OrderStatusExpired},
	OrderStatusRejected:             {},
	OrderStatusExpired:              {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Open reports whether the order still waits for the user or the approver.
func (s OrderStatus) Open() bool {
	return s == OrderStatusPending || s == OrderStatusAwaitingConfirmation
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Order is a single user's subscription request. Plan fields are a snapshot
// taken at creation time.
type Order struct {
	ID             int64
	UserID         int64
	PlanID         string
	DurationMonths int
	Price          decimal.Decimal
	Status         OrderStatus
	ProofRef       string
	GrantRef       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ConfirmedAt    *time.Time
	ExpiresAt      *time.Time
}

// NewOrder builds a pending order from the chosen plan.
func NewOrder(userID int64, plan Plan, now time.Time) *Order {
	return &Order{
		UserID:         userID,
		PlanID:         plan.ID,
		DurationMonths: plan.DurationMonths,
		Price:          plan.Price,
		Status:         OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Expired reports whether a confirmed order's access window has passed.
func (o *Order) Expired(now time.Time) bool {
	return o.Status == OrderStatusConfirmed && o.ExpiresAt != nil && !now.Before(*o.ExpiresAt)
}
