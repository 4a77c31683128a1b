package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
	"github.com/polkiloo/channelpass/internal/domain/repository"
	"github.com/polkiloo/channelpass/internal/pkg/auth"
)

// GrantUsageLimit is how many times an issued invite may be redeemed.
const GrantUsageLimit = 1

var errNotDue = errors.New("order not due for expiry")

// OrderUseCase owns every order state transition and its side effects.
type OrderUseCase struct {
	orders   repository.OrderRepository
	catalog  *Catalog
	issuer   GrantIssuer
	notifier Notifier
	approver auth.Approver
	logger   *slog.Logger
	locks    *userLocks
	now      func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	catalog *Catalog,
	issuer GrantIssuer,
	notifier Notifier,
	approver auth.Approver,
	logger *slog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orders:   orders,
		catalog:  catalog,
		issuer:   issuer,
		notifier: notifier,
		approver: approver,
		logger:   logger,
		locks:    newUserLocks(),
		now:      time.Now,
	}
}

// ShowPlans sends the plan menu. It never touches stored orders.
func (u *OrderUseCase) ShowPlans(ctx context.Context, userID int64) error {
	if err := u.notifier.PlanMenu(ctx, userID, u.catalog.Plans()); err != nil {
		return domainErrors.Dependency("send plan menu", err)
	}
	return nil
}

// SelectPlan opens a pending order for the chosen plan and sends payment
// instructions. If the instructions cannot be delivered the order is withdrawn.
func (u *OrderUseCase) SelectPlan(ctx context.Context, userID int64, planID string) (*model.Order, error) {
	plan, err := u.catalog.Lookup(planID)
	if err != nil {
		return nil, err
	}

	unlock := u.locks.lock(userID)
	defer unlock()

	order, err := u.orders.Create(ctx, model.NewOrder(userID, plan, u.now()))
	if err != nil {
		return nil, storeError("create order", err)
	}

	if err := u.notifier.PaymentInstructions(ctx, userID, plan); err != nil {
		u.withdraw(ctx, order)
		return nil, domainErrors.Dependency("send payment instructions", err)
	}

	u.logger.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", userID),
		slog.String("plan_id", plan.ID),
	)
	return order, nil
}

// SubmitProof attaches the payment proof to the user's pending order and
// forwards it to the approver.
func (u *OrderUseCase) SubmitProof(ctx context.Context, userID int64, proofRef string) (*model.Order, error) {
	if proofRef == "" {
		return nil, domainErrors.ErrMalformedCommand
	}

	unlock := u.locks.lock(userID)
	defer unlock()

	sel := repository.OrderSelector{UserID: userID, Status: model.OrderStatusPending}
	res, err := u.orders.Transition(ctx, sel, func(o *model.Order) error {
		if err := advance(o, model.OrderStatusAwaitingConfirmation, u.now()); err != nil {
			return err
		}
		o.ProofRef = proofRef
		if err := u.notifier.ProofForwarded(ctx, u.approver.ID(), o); err != nil {
			return domainErrors.Dependency("forward proof", err)
		}
		return nil
	})
	if err != nil {
		return nil, transitionError("submit proof", err, domainErrors.ErrNoPendingOrder)
	}
	u.reportShadowed("submit proof", userID, res)

	u.ack("proof received", userID, u.notifier.ProofReceived(ctx, userID))
	return res.Order, nil
}

// ConfirmPayment issues exactly one grant for the target user's order that
// awaits confirmation. The grant is issued and delivered while the order is
// locked, so a failure leaves the order awaiting confirmation.
func (u *OrderUseCase) ConfirmPayment(ctx context.Context, approverID, targetUserID int64) (*model.Order, error) {
	if err := u.approver.Authorize(approverID); err != nil {
		return nil, err
	}
	if targetUserID <= 0 {
		return nil, domainErrors.ErrMalformedCommand
	}

	unlock := u.locks.lock(targetUserID)
	defer unlock()

	var issued string
	sel := repository.OrderSelector{UserID: targetUserID, Status: model.OrderStatusAwaitingConfirmation}
	res, err := u.orders.Transition(ctx, sel, func(o *model.Order) error {
		now := u.now()
		expiresAt := now.Add(model.AccessWindow(o.DurationMonths))

		grant, err := u.issuer.Issue(ctx, expiresAt, GrantUsageLimit)
		if err != nil {
			return domainErrors.Dependency("issue grant", err)
		}
		issued = grant.Ref

		if err := advance(o, model.OrderStatusConfirmed, now); err != nil {
			return err
		}
		o.GrantRef = grant.Ref
		o.ExpiresAt = &expiresAt
		o.ConfirmedAt = &now

		if err := u.notifier.AccessGranted(ctx, o); err != nil {
			return domainErrors.Dependency("deliver grant", err)
		}
		return nil
	})
	if err != nil {
		if issued != "" {
			u.revoke(ctx, targetUserID, issued)
		}
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, u.explainMissingAwaiting(ctx, targetUserID)
		}
		return nil, transitionError("confirm payment", err, domainErrors.ErrNoAwaitingOrder)
	}
	u.reportShadowed("confirm payment", targetUserID, res)

	u.logger.Info("order confirmed",
		slog.Int64("order_id", res.Order.ID),
		slog.Int64("user_id", targetUserID),
		slog.Time("expires_at", *res.Order.ExpiresAt),
	)
	u.ack("confirmation ack", approverID, u.notifier.ConfirmationAck(ctx, approverID, res.Order))
	return res.Order, nil
}

// RejectPayment closes the target user's open order, preferring the one that
// awaits confirmation.
func (u *OrderUseCase) RejectPayment(ctx context.Context, approverID, targetUserID int64) (*model.Order, error) {
	if err := u.approver.Authorize(approverID); err != nil {
		return nil, err
	}
	if targetUserID <= 0 {
		return nil, domainErrors.ErrMalformedCommand
	}

	unlock := u.locks.lock(targetUserID)
	defer unlock()

	var (
		res *repository.TransitionResult
		err error
	)
	for _, status := range []model.OrderStatus{model.OrderStatusAwaitingConfirmation, model.OrderStatusPending} {
		sel := repository.OrderSelector{UserID: targetUserID, Status: status}
		res, err = u.orders.Transition(ctx, sel, func(o *model.Order) error {
			return advance(o, model.OrderStatusRejected, u.now())
		})
		if !errors.Is(err, domainErrors.ErrNotFound) {
			break
		}
	}
	if err != nil {
		return nil, transitionError("reject payment", err, domainErrors.ErrNoPendingOrder)
	}
	u.reportShadowed("reject payment", targetUserID, res)

	u.logger.Info("order rejected", slog.Int64("order_id", res.Order.ID), slog.Int64("user_id", targetUserID))
	u.ack("payment rejected", targetUserID, u.notifier.PaymentRejected(ctx, res.Order))
	u.ack("rejection ack", approverID, u.notifier.RejectionAck(ctx, approverID, res.Order))
	return res.Order, nil
}

// CancelOrder lets a user withdraw a pending order before sending proof.
func (u *OrderUseCase) CancelOrder(ctx context.Context, userID int64) (*model.Order, error) {
	unlock := u.locks.lock(userID)
	defer unlock()

	sel := repository.OrderSelector{UserID: userID, Status: model.OrderStatusPending}
	res, err := u.orders.Transition(ctx, sel, func(o *model.Order) error {
		return advance(o, model.OrderStatusRejected, u.now())
	})
	if err != nil {
		return nil, transitionError("cancel order", err, domainErrors.ErrNoPendingOrder)
	}
	u.reportShadowed("cancel order", userID, res)

	u.ack("order cancelled", userID, u.notifier.OrderCancelled(ctx, res.Order))
	return res.Order, nil
}

// ResendGrant delivers the grant of the user's latest confirmed order again.
// No new credential is issued.
func (u *OrderUseCase) ResendGrant(ctx context.Context, approverID, targetUserID int64) (*model.Order, error) {
	if err := u.approver.Authorize(approverID); err != nil {
		return nil, err
	}
	if targetUserID <= 0 {
		return nil, domainErrors.ErrMalformedCommand
	}

	unlock := u.locks.lock(targetUserID)
	defer unlock()

	orders, err := u.orders.ListByUser(ctx, targetUserID)
	if err != nil {
		return nil, storeError("list orders", err)
	}

	var confirmed *model.Order
	for i := range orders {
		if orders[i].Status == model.OrderStatusConfirmed {
			confirmed = &orders[i]
			break
		}
	}
	if confirmed == nil {
		return nil, domainErrors.ErrNoConfirmedOrder
	}

	if err := u.notifier.AccessGranted(ctx, confirmed); err != nil {
		return nil, domainErrors.Dependency("deliver grant", err)
	}
	u.ack("resend ack", approverID, u.notifier.ResendAck(ctx, approverID, confirmed))
	return confirmed, nil
}

// Expire closes a confirmed order whose access window has passed. It revokes
// the invite and removes the member unless another confirmed order still
// covers them. Calling it for an order that is not due or already closed is a
// no-op.
func (u *OrderUseCase) Expire(ctx context.Context, order model.Order) error {
	unlock := u.locks.lock(order.UserID)
	defer unlock()

	covered, err := u.coveredElsewhere(ctx, order)
	if err != nil {
		return err
	}

	sel := repository.OrderSelector{ID: order.ID, Status: model.OrderStatusConfirmed}
	res, err := u.orders.Transition(ctx, sel, func(o *model.Order) error {
		now := u.now()
		if !o.Expired(now) {
			return errNotDue
		}

		if o.GrantRef != "" {
			u.revoke(ctx, o.UserID, o.GrantRef)
		}
		if !covered {
			if err := u.issuer.RemoveMember(ctx, o.UserID); err != nil {
				u.logger.Warn("failed to remove member",
					slog.Int64("user_id", o.UserID),
					slog.String("error", err.Error()),
				)
			}
		}

		if err := advance(o, model.OrderStatusExpired, now); err != nil {
			return err
		}
		o.GrantRef = ""
		o.ExpiresAt = nil
		return nil
	})
	switch {
	case errors.Is(err, errNotDue), errors.Is(err, domainErrors.ErrNotFound):
		return nil
	case err != nil:
		return storeError("expire order", err)
	}

	u.logger.Info("order expired", slog.Int64("order_id", res.Order.ID), slog.Int64("user_id", res.Order.UserID))
	u.ack("access expired", res.Order.UserID, u.notifier.AccessExpired(ctx, res.Order))
	return nil
}

// ExpiredBatch returns confirmed orders whose access window has passed.
func (u *OrderUseCase) ExpiredBatch(ctx context.Context, limit int) ([]model.Order, error) {
	orders, err := u.orders.SelectExpired(ctx, u.now(), limit)
	if err != nil {
		return nil, storeError("select expired orders", err)
	}
	return orders, nil
}

// ListByUser returns the user's orders, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := u.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError("list orders", err)
	}
	return orders, nil
}

// OrderByID returns a single order for the audit API.
func (u *OrderUseCase) OrderByID(ctx context.Context, id int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get order", err)
	}
	return order, nil
}

func (u *OrderUseCase) explainMissingAwaiting(ctx context.Context, userID int64) error {
	latest, err := u.orders.LatestByUser(ctx, userID)
	if err == nil && latest.Status == model.OrderStatusConfirmed {
		return domainErrors.ErrAlreadyConfirmed
	}
	if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		return storeError("latest order", err)
	}
	return domainErrors.ErrNoAwaitingOrder
}

func (u *OrderUseCase) coveredElsewhere(ctx context.Context, order model.Order) (bool, error) {
	orders, err := u.orders.ListByUser(ctx, order.UserID)
	if err != nil {
		return false, storeError("list orders", err)
	}
	now := u.now()
	for i := range orders {
		o := orders[i]
		if o.ID != order.ID && o.Status == model.OrderStatusConfirmed && !o.Expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (u *OrderUseCase) withdraw(ctx context.Context, order *model.Order) {
	sel := repository.OrderSelector{ID: order.ID, Status: model.OrderStatusPending}
	_, err := u.orders.Transition(ctx, sel, func(o *model.Order) error {
		return advance(o, model.OrderStatusRejected, u.now())
	})
	if err != nil {
		u.logger.Error("failed to withdraw undelivered order",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (u *OrderUseCase) revoke(ctx context.Context, userID int64, ref string) {
	if err := u.issuer.Revoke(ctx, ref); err != nil {
		u.logger.Warn("failed to revoke grant",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (u *OrderUseCase) reportShadowed(op string, userID int64, res *repository.TransitionResult) {
	if res == nil || res.Shadowed == 0 {
		return
	}
	u.logger.Error("multiple qualifying orders",
		slog.String("op", op),
		slog.Int64("user_id", userID),
		slog.Int64("order_id", res.Order.ID),
		slog.Int("shadowed", res.Shadowed),
	)
}

func (u *OrderUseCase) ack(what string, chatID int64, err error) {
	if err == nil {
		return
	}
	u.logger.Warn("notification not delivered",
		slog.String("notification", what),
		slog.Int64("chat_id", chatID),
		slog.String("error", err.Error()),
	)
}

func advance(o *model.Order, to model.OrderStatus, now time.Time) error {
	if !model.CanTransition(o.Status, to) {
		return domainErrors.ErrStaleOrder
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// transitionError maps a failed Transition to a domain error. A missing row is
// reported as notFound.
func transitionError(op string, err, notFound error) error {
	if errors.Is(err, domainErrors.ErrDependency) {
		return err
	}
	if errors.Is(err, domainErrors.ErrNotFound) {
		return notFound
	}
	return storeError(op, err)
}

// storeError passes domain errors through and marks anything else as a
// storage dependency failure.
func storeError(op string, err error) error {
	for _, category := range []error{
		domainErrors.ErrValidation,
		domainErrors.ErrNotFound,
		domainErrors.ErrAuthorization,
		domainErrors.ErrConflict,
		domainErrors.ErrDependency,
	} {
		if errors.Is(err, category) {
			return err
		}
	}
	return domainErrors.Dependency(op, err)
}
