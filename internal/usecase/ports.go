package usecase

import (
	"context"
	"time"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

// GrantIssuer produces and withdraws channel admission credentials.
type GrantIssuer interface {
	Issue(ctx context.Context, expiresAt time.Time, usageLimit int) (model.Grant, error)
	Revoke(ctx context.Context, ref string) error
	// RemoveMember takes the user out of the channel without banning them for good.
	RemoveMember(ctx context.Context, userID int64) error
}

// Notifier delivers order related messages to users and the approver.
type Notifier interface {
	PlanMenu(ctx context.Context, userID int64, plans []model.Plan) error
	PaymentInstructions(ctx context.Context, userID int64, plan model.Plan) error
	ProofForwarded(ctx context.Context, approverID int64, order *model.Order) error
	ProofReceived(ctx context.Context, userID int64) error
	AccessGranted(ctx context.Context, order *model.Order) error
	ConfirmationAck(ctx context.Context, approverID int64, order *model.Order) error
	PaymentRejected(ctx context.Context, order *model.Order) error
	RejectionAck(ctx context.Context, approverID int64, order *model.Order) error
	OrderCancelled(ctx context.Context, order *model.Order) error
	AccessExpired(ctx context.Context, order *model.Order) error
	ResendAck(ctx context.Context, approverID int64, order *model.Order) error
	Failure(ctx context.Context, chatID int64, err error) error
}
