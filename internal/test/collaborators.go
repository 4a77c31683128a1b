package test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/polkiloo/channelpass/internal/domain/model"
)

// IssuerStub records grant operations and hands out sequential invite links.
type IssuerStub struct {
	IssueFn        func(context.Context, time.Time, int) (model.Grant, error)
	RevokeFn       func(context.Context, string) error
	RemoveMemberFn func(context.Context, int64) error

	mu      sync.Mutex
	issued  []model.Grant
	revoked []string
	removed []int64
}

// Issue returns a new grant unless IssueFn overrides it.
func (s *IssuerStub) Issue(ctx context.Context, expiresAt time.Time, usageLimit int) (model.Grant, error) {
	if s.IssueFn != nil {
		grant, err := s.IssueFn(ctx, expiresAt, usageLimit)
		if err != nil {
			return model.Grant{}, err
		}
		s.record(grant)
		return grant, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	grant := model.Grant{
		Ref:        fmt.Sprintf("https://t.me/+invite%d", len(s.issued)+1),
		ExpiresAt:  expiresAt,
		UsageLimit: usageLimit,
	}
	s.issued = append(s.issued, grant)
	return grant, nil
}

func (s *IssuerStub) record(grant model.Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = append(s.issued, grant)
}

// Revoke records the revoked reference.
func (s *IssuerStub) Revoke(ctx context.Context, ref string) error {
	s.mu.Lock()
	s.revoked = append(s.revoked, ref)
	s.mu.Unlock()
	if s.RevokeFn != nil {
		return s.RevokeFn(ctx, ref)
	}
	return nil
}

// RemoveMember records the removed user.
func (s *IssuerStub) RemoveMember(ctx context.Context, userID int64) error {
	s.mu.Lock()
	s.removed = append(s.removed, userID)
	s.mu.Unlock()
	if s.RemoveMemberFn != nil {
		return s.RemoveMemberFn(ctx, userID)
	}
	return nil
}

// Issued returns grants handed out so far.
func (s *IssuerStub) Issued() []model.Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Grant(nil), s.issued...)
}

// Revoked returns revoked references.
func (s *IssuerStub) Revoked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revoked...)
}

// Removed returns users taken out of the channel.
func (s *IssuerStub) Removed() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.removed...)
}

// Notification is a single message recorded by NotifierStub.
type Notification struct {
	Kind   string
	ChatID int64
	Order  *model.Order
	Plan   model.Plan
	Plans  []model.Plan
	Err    error
}

// NotifierStub records every outbound notification. Fail maps a notification
// kind to the error returned for it.
type NotifierStub struct {
	Fail map[string]error

	mu   sync.Mutex
	sent []Notification
}

// Notification kinds recorded by NotifierStub.
const (
	KindPlanMenu            = "plan_menu"
	KindPaymentInstructions = "payment_instructions"
	KindProofForwarded      = "proof_forwarded"
	KindProofReceived       = "proof_received"
	KindAccessGranted       = "access_granted"
	KindConfirmationAck     = "confirmation_ack"
	KindPaymentRejected     = "payment_rejected"
	KindRejectionAck        = "rejection_ack"
	KindOrderCancelled      = "order_cancelled"
	KindAccessExpired       = "access_expired"
	KindResendAck           = "resend_ack"
	KindFailure             = "failure"
)

func (s *NotifierStub) push(n Notification) error {
	if n.Order != nil {
		o := cloneOrder(*n.Order)
		n.Order = &o
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Fail[n.Kind]; err != nil {
		return err
	}
	s.sent = append(s.sent, n)
	return nil
}

// Sent returns all delivered notifications.
func (s *NotifierStub) Sent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.sent...)
}

// OfKind returns delivered notifications of the given kind.
func (s *NotifierStub) OfKind(kind string) []Notification {
	var out []Notification
	for _, n := range s.Sent() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (s *NotifierStub) PlanMenu(_ context.Context, userID int64, plans []model.Plan) error {
	return s.push(Notification{Kind: KindPlanMenu, ChatID: userID, Plans: plans})
}

func (s *NotifierStub) PaymentInstructions(_ context.Context, userID int64, plan model.Plan) error {
	return s.push(Notification{Kind: KindPaymentInstructions, ChatID: userID, Plan: plan})
}

func (s *NotifierStub) ProofForwarded(_ context.Context, approverID int64, order *model.Order) error {
	return s.push(Notification{Kind: KindProofForwarded, ChatID: approverID, Order: order})
}

func (s *NotifierStub) ProofReceived(_ context.Context, userID int64) error {
	return s.push(Notification{Kind: KindProofReceived, ChatID: userID})
}

func (s *NotifierStub) AccessGranted(_ context.Context, order *model.Order) error {
	return s.push(Notification{Kind: KindAccessGranted, ChatID: order.UserID, Order: order})
}

func (s *NotifierStub) ConfirmationAck(_ context.Context, approverID int64, order *model.Order) error {
	return s.push(Notification{Kind: KindConfirmationAck, ChatID: approverID, Order: order})
}

func (s *NotifierStub) PaymentRejected(_ context.Context, order *model.Order) error {
	return s.push(Notification{Kind: KindPaymentRejected, ChatID: order.UserID, Order: order})
}

func (s *NotifierStub) RejectionAck(_ context.Context, approverID int64, order *model.Order) error {
	return s.push(Notification{Kind: KindRejectionAck, ChatID: approverID, Order: order})
}

func (s *NotifierStub) OrderCancelled(_ context.Context, order *model.Order) error {
	return s.push(Notification{Kind: KindOrderCancelled, ChatID: order.UserID, Order: order})
}

func (s *NotifierStub) AccessExpired(_ context.Context, order *model.Order) error {
	return s.push(Notification{Kind: KindAccessExpired, ChatID: order.UserID, Order: order})
}

func (s *NotifierStub) ResendAck(_ context.Context, approverID int64, order *model.Order) error {
	return s.push(Notification{Kind: KindResendAck, ChatID: approverID, Order: order})
}

func (s *NotifierStub) Failure(_ context.Context, chatID int64, err error) error {
	return s.push(Notification{Kind: KindFailure, ChatID: chatID, Err: err})
}

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied password.
func (h HasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	return "hash:" + password, nil
}

// Compare validates password against stored hash.
func (h HasherStub) Compare(hash string, password string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, password)
	}
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// ExpiryServiceStub serves queued batches of due orders and records expirations.
type ExpiryServiceStub struct {
	sync.Mutex
	Batches  [][]model.Order
	BatchErr error
	ExpireFn func(ctx context.Context, order model.Order) error
	Expired  []model.Order
	Limits   []int
}

// ExpiredBatch returns the next queued batch, or nothing once the queue is drained.
func (s *ExpiryServiceStub) ExpiredBatch(_ context.Context, limit int) ([]model.Order, error) {
	s.Lock()
	defer s.Unlock()
	s.Limits = append(s.Limits, limit)
	if s.BatchErr != nil {
		return nil, s.BatchErr
	}
	if len(s.Batches) == 0 {
		return nil, nil
	}
	batch := s.Batches[0]
	s.Batches = s.Batches[1:]
	return batch, nil
}

// Expire records the order and delegates to ExpireFn when set.
func (s *ExpiryServiceStub) Expire(ctx context.Context, order model.Order) error {
	s.Lock()
	s.Expired = append(s.Expired, order)
	fn := s.ExpireFn
	s.Unlock()
	if fn != nil {
		return fn(ctx, order)
	}
	return nil
}

// ExpiredCount reports how many expirations were attempted.
func (s *ExpiryServiceStub) ExpiredCount() int {
	s.Lock()
	defer s.Unlock()
	return len(s.Expired)
}
