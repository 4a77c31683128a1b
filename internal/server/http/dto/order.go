package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderResponse describes an order in the audit listing. The invite link
// itself is never exposed.
type OrderResponse struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	PlanID         string          `json:"plan_id"`
	DurationMonths int             `json:"duration_months"`
	Price          decimal.Decimal `json:"price"`
	Status         string          `json:"status"`
	HasGrant       bool            `json:"has_grant"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}
