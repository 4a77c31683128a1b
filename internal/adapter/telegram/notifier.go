package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
)

const expiryLayout = "2 Jan 2006 15:04 MST"

// Notifier renders order notifications as Telegram messages.
type Notifier struct {
	client         *Client
	approverID     int64
	paymentAccount string
	paymentQR      []byte
}

// NewNotifier renders the payment QR code once and returns a Notifier.
func NewNotifier(client *Client, approverID int64, paymentAccount string) (*Notifier, error) {
	qr, err := RenderQR(paymentAccount)
	if err != nil {
		return nil, err
	}
	return &Notifier{
		client:         client,
		approverID:     approverID,
		paymentAccount: paymentAccount,
		paymentQR:      qr,
	}, nil
}

// PlanMenu sends one button per plan.
func (n *Notifier) PlanMenu(ctx context.Context, userID int64, plans []model.Plan) error {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(planLabel(p), planCallbackPrefix+p.ID),
		))
	}
	msg := tgbotapi.NewMessage(userID, "👋 Welcome! Please choose a plan:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return n.send(ctx, msg)
}

// PaymentInstructions sends the payment account as QR code with a caption.
func (n *Notifier) PaymentInstructions(ctx context.Context, userID int64, plan model.Plan) error {
	caption := fmt.Sprintf(
		"✅ You chose %d month(s).\n💵 Price: %s Ks\n\n💳 Pay to KBZPay: %s\n📷 Then send payment screenshot here.",
		plan.DurationMonths, plan.Price.String(), n.paymentAccount,
	)
	photo := tgbotapi.NewPhoto(userID, tgbotapi.FileBytes{Name: "payment.png", Bytes: n.paymentQR})
	photo.Caption = caption
	_, err := n.client.SendPhoto(ctx, photo)
	return err
}

// ProofForwarded shows the screenshot to the approver with the reply prompt.
func (n *Notifier) ProofForwarded(ctx context.Context, approverID int64, order *model.Order) error {
	caption := fmt.Sprintf(
		"User %d sent proof for %d month(s) (%s Ks). Reply /confirm %d to approve or /reject %d to decline.",
		order.UserID, order.DurationMonths, order.Price.String(), order.UserID, order.UserID,
	)
	photo := tgbotapi.NewPhoto(approverID, tgbotapi.FileID(order.ProofRef))
	photo.Caption = caption
	_, err := n.client.SendPhoto(ctx, photo)
	return err
}

// ProofReceived tells the user the screenshot reached the approver.
func (n *Notifier) ProofReceived(ctx context.Context, userID int64) error {
	return n.text(ctx, userID, "📩 Payment sent! Waiting for admin confirmation.")
}

// AccessGranted delivers the invite link with its expiry.
func (n *Notifier) AccessGranted(ctx context.Context, order *model.Order) error {
	return n.text(ctx, order.UserID, fmt.Sprintf(
		"🎉 Payment confirmed!\nHere is your invite link:\n%s\n\nExpires in %d month(s), on %s.\n\nℹ️ To extend, type /start again.",
		order.GrantRef, order.DurationMonths, formatExpiry(order.ExpiresAt),
	))
}

// ConfirmationAck tells the approver the confirmation went through.
func (n *Notifier) ConfirmationAck(ctx context.Context, approverID int64, order *model.Order) error {
	return n.text(ctx, approverID, fmt.Sprintf("Confirmed user %d for %d month(s).", order.UserID, order.DurationMonths))
}

// PaymentRejected tells the user the approver declined the payment.
func (n *Notifier) PaymentRejected(ctx context.Context, order *model.Order) error {
	return n.text(ctx, order.UserID, "❌ Your payment could not be confirmed. Type /start to try again.")
}

// RejectionAck tells the approver the order was rejected.
func (n *Notifier) RejectionAck(ctx context.Context, approverID int64, order *model.Order) error {
	return n.text(ctx, approverID, fmt.Sprintf("Rejected order of user %d.", order.UserID))
}

// OrderCancelled confirms a user cancellation.
func (n *Notifier) OrderCancelled(ctx context.Context, order *model.Order) error {
	return n.text(ctx, order.UserID, "🗑 Order cancelled. Type /start to choose a plan.")
}

// AccessExpired tells the user the access window is over.
func (n *Notifier) AccessExpired(ctx context.Context, order *model.Order) error {
	return n.text(ctx, order.UserID, "⌛ Your access has expired.\n\nℹ️ To renew, type /start again.")
}

// ResendAck tells the approver the invite link was sent again.
func (n *Notifier) ResendAck(ctx context.Context, approverID int64, order *model.Order) error {
	return n.text(ctx, approverID, fmt.Sprintf("Invite link sent to user %d again.", order.UserID))
}

// Failure explains an error to whoever triggered it.
func (n *Notifier) Failure(ctx context.Context, chatID int64, err error) error {
	return n.text(ctx, chatID, n.failureText(chatID, err))
}

func (n *Notifier) failureText(chatID int64, err error) string {
	approver := chatID == n.approverID
	switch {
	case errors.Is(err, domainErrors.ErrPlanNotFound):
		return "Unknown plan. Type /start to see the available plans."
	case errors.Is(err, domainErrors.ErrMalformedCommand):
		return "Usage:\n/confirm <user_id>\n/reject <user_id>\n/resend <user_id>"
	case errors.Is(err, domainErrors.ErrOrderInProgress):
		return "⏳ You already have an order in progress. Send your payment screenshot or type /cancel to start over."
	case errors.Is(err, domainErrors.ErrNoPendingOrder) && approver:
		return "No pending order for that user."
	case errors.Is(err, domainErrors.ErrNoPendingOrder):
		return "You have no pending order. Type /start to choose a plan."
	case errors.Is(err, domainErrors.ErrNoAwaitingOrder):
		return "No pending order for that user."
	case errors.Is(err, domainErrors.ErrNoConfirmedOrder):
		return "No confirmed order for that user."
	case errors.Is(err, domainErrors.ErrAlreadyConfirmed):
		return "That user's order is already confirmed."
	case errors.Is(err, domainErrors.ErrStaleOrder):
		return "The order changed in the meantime, please try again."
	default:
		return "⚠️ Something went wrong, please try again in a moment."
	}
}

func (n *Notifier) text(ctx context.Context, chatID int64, text string) error {
	return n.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (n *Notifier) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	_, err := n.client.SendMessage(ctx, msg)
	return err
}

func planLabel(p model.Plan) string {
	unit := "Month"
	if p.DurationMonths != 1 {
		unit = "Months"
	}
	return fmt.Sprintf("%d %s (%s Ks)", p.DurationMonths, unit, p.Price.String())
}

func formatExpiry(at *time.Time) string {
	if at == nil {
		return "unknown date"
	}
	return at.UTC().Format(expiryLayout)
}
