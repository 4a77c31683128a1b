package dispatch

import (
	"context"
	"errors"
	"log/slog"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
)

// OrderService is the set of order transitions reachable from inbound events.
type OrderService interface {
	ShowPlans(ctx context.Context, userID int64) error
	SelectPlan(ctx context.Context, userID int64, planID string) (*model.Order, error)
	SubmitProof(ctx context.Context, userID int64, proofRef string) (*model.Order, error)
	CancelOrder(ctx context.Context, userID int64) (*model.Order, error)
	ConfirmPayment(ctx context.Context, approverID, targetUserID int64) (*model.Order, error)
	RejectPayment(ctx context.Context, approverID, targetUserID int64) (*model.Order, error)
	ResendGrant(ctx context.Context, approverID, targetUserID int64) (*model.Order, error)
}

// Authorizer grants access to approver-only commands.
type Authorizer interface {
	Authorize(actorID int64) error
}

// FailureReporter tells the initiator why their request failed.
type FailureReporter interface {
	Failure(ctx context.Context, chatID int64, err error) error
}

// Dispatcher routes each classified event to exactly one order transition.
type Dispatcher struct {
	orders   OrderService
	approver Authorizer
	reporter FailureReporter
	logger   *slog.Logger
}

// NewDispatcher constructs Dispatcher.
func NewDispatcher(orders OrderService, approver Authorizer, reporter FailureReporter, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{orders: orders, approver: approver, reporter: reporter, logger: logger}
}

// Dispatch handles ev synchronously. Failures are reported to the initiator,
// except authorization failures which are only logged. The error is returned
// for the caller's bookkeeping; none of them is fatal.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.Event) error {
	if ev == nil {
		return nil
	}

	err := d.route(ctx, ev)
	if err == nil {
		return nil
	}

	if errors.Is(err, domainErrors.ErrAuthorization) {
		d.logger.Warn("unauthorized approver command dropped", slog.Int64("actor_id", ev.Actor()))
		return err
	}

	d.logger.Info("event failed",
		slog.Int64("actor_id", ev.Actor()),
		slog.String("event", eventName(ev)),
		slog.String("error", err.Error()),
	)
	if reportErr := d.reporter.Failure(ctx, ev.Actor(), err); reportErr != nil {
		d.logger.Warn("failed to report error", slog.Int64("chat_id", ev.Actor()), slog.String("error", reportErr.Error()))
	}
	return err
}

func (d *Dispatcher) route(ctx context.Context, ev model.Event) error {
	switch e := ev.(type) {
	case model.Start:
		return d.orders.ShowPlans(ctx, e.UserID)
	case model.PlanChosen:
		_, err := d.orders.SelectPlan(ctx, e.UserID, e.PlanID)
		return err
	case model.ProofSubmitted:
		_, err := d.orders.SubmitProof(ctx, e.UserID, e.ProofRef)
		return err
	case model.CancelRequested:
		_, err := d.orders.CancelOrder(ctx, e.UserID)
		return err
	case model.ApproverCommand:
		return d.approverCommand(ctx, e)
	default:
		return nil
	}
}

func (d *Dispatcher) approverCommand(ctx context.Context, cmd model.ApproverCommand) error {
	if err := d.approver.Authorize(cmd.ActorID); err != nil {
		return err
	}
	if cmd.TargetUserID <= 0 {
		return domainErrors.ErrMalformedCommand
	}

	var err error
	switch cmd.Action {
	case model.ApproverConfirm:
		_, err = d.orders.ConfirmPayment(ctx, cmd.ActorID, cmd.TargetUserID)
	case model.ApproverReject:
		_, err = d.orders.RejectPayment(ctx, cmd.ActorID, cmd.TargetUserID)
	case model.ApproverResend:
		_, err = d.orders.ResendGrant(ctx, cmd.ActorID, cmd.TargetUserID)
	default:
		err = domainErrors.ErrMalformedCommand
	}
	return err
}

func eventName(ev model.Event) string {
	switch e := ev.(type) {
	case model.Start:
		return "start"
	case model.PlanChosen:
		return "plan_chosen"
	case model.ProofSubmitted:
		return "proof_submitted"
	case model.CancelRequested:
		return "cancel"
	case model.ApproverCommand:
		return string(e.Action)
	default:
		return "unknown"
	}
}
