package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
)

const testApprover int64 = 1001

func newTestNotifier(t *testing.T, api *fakeAPI) *Notifier {
	t.Helper()
	n, err := NewNotifier(api.client(), testApprover, "09799766739")
	require.NoError(t, err)
	return n
}

func TestNotifierPlanMenu(t *testing.T) {
	api := newFakeAPI(t)
	n := newTestNotifier(t, api)

	plans := []model.Plan{
		{ID: "1", DurationMonths: 1, Price: decimal.NewFromInt(10000)},
		{ID: "3", DurationMonths: 3, Price: decimal.NewFromInt(25000)},
	}
	require.NoError(t, n.PlanMenu(context.Background(), 5, plans))

	calls := api.CallsTo("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "👋 Welcome! Please choose a plan:", calls[0].Fields["text"])

	rows := calls[0].markup(t)
	require.Len(t, rows, 2)
	first := rows[0][0]
	second := rows[1][0]
	assert.Equal(t, "1 Month (10000 Ks)", first["text"])
	assert.Equal(t, "plan:1", first["callback_data"])
	assert.Equal(t, "3 Months (25000 Ks)", second["text"])
}

func TestNotifierPaymentInstructionsUploadsQRCode(t *testing.T) {
	api := newFakeAPI(t)
	n := newTestNotifier(t, api)

	plan := model.Plan{ID: "3", DurationMonths: 3, Price: decimal.NewFromInt(25000)}
	require.NoError(t, n.PaymentInstructions(context.Background(), 5, plan))

	calls := api.CallsTo("sendPhoto")
	require.Len(t, calls, 1)
	assert.Equal(t, "5", calls[0].Fields["chat_id"])
	assert.Contains(t, calls[0].Fields["caption"], "You chose 3 month(s).")
	assert.Contains(t, calls[0].Fields["caption"], "Price: 25000 Ks")
	assert.Contains(t, calls[0].Fields["caption"], "Pay to KBZPay: 09799766739")
	assert.True(t, bytes.HasPrefix(calls[0].File, []byte("\x89PNG")))
}

func TestNotifierProofForwarded(t *testing.T) {
	api := newFakeAPI(t)
	n := newTestNotifier(t, api)

	order := &model.Order{UserID: 42, DurationMonths: 1, Price: decimal.NewFromInt(10000), ProofRef: "file-id"}
	require.NoError(t, n.ProofForwarded(context.Background(), testApprover, order))

	calls := api.CallsTo("sendPhoto")
	require.Len(t, calls, 1)
	assert.Equal(t, strconv.FormatInt(testApprover, 10), calls[0].Fields["chat_id"])
	assert.Equal(t, "file-id", calls[0].Fields["photo"])
	assert.Nil(t, calls[0].File)
	assert.Contains(t, calls[0].Fields["caption"], "User 42 sent proof")
	assert.Contains(t, calls[0].Fields["caption"], "/confirm 42")
}

func TestNotifierAccessGranted(t *testing.T) {
	api := newFakeAPI(t)
	n := newTestNotifier(t, api)

	expires := time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)
	order := &model.Order{UserID: 42, DurationMonths: 1, GrantRef: "https://t.me/+abc", ExpiresAt: &expires}
	require.NoError(t, n.AccessGranted(context.Background(), order))

	calls := api.CallsTo("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "42", calls[0].Fields["chat_id"])
	text := calls[0].Fields["text"]
	assert.Contains(t, text, "https://t.me/+abc")
	assert.Contains(t, text, "31 Mar 2025 12:00 UTC")
	assert.Contains(t, text, "/start")
}

func TestNotifierAcknowledgements(t *testing.T) {
	api := newFakeAPI(t)
	n := newTestNotifier(t, api)
	ctx := context.Background()
	order := &model.Order{UserID: 42, DurationMonths: 6}

	require.NoError(t, n.ProofReceived(ctx, 42))
	require.NoError(t, n.ConfirmationAck(ctx, testApprover, order))
	require.NoError(t, n.PaymentRejected(ctx, order))
	require.NoError(t, n.RejectionAck(ctx, testApprover, order))
	require.NoError(t, n.OrderCancelled(ctx, order))
	require.NoError(t, n.AccessExpired(ctx, order))
	require.NoError(t, n.ResendAck(ctx, testApprover, order))

	calls := api.CallsTo("sendMessage")
	require.Len(t, calls, 7)
	assert.Equal(t, "📩 Payment sent! Waiting for admin confirmation.", calls[0].Fields["text"])
	assert.Equal(t, "Confirmed user 42 for 6 month(s).", calls[1].Fields["text"])
	assert.Equal(t, strconv.FormatInt(testApprover, 10), calls[1].Fields["chat_id"])
	assert.Equal(t, "42", calls[5].Fields["chat_id"])
}

func TestNotifierFailureText(t *testing.T) {
	api := newFakeAPI(t)
	n := newTestNotifier(t, api)

	cases := []struct {
		chatID int64
		err    error
		want   string
	}{
		{5, domainErrors.ErrPlanNotFound, "Unknown plan"},
		{testApprover, domainErrors.ErrMalformedCommand, "Usage:\n/confirm <user_id>"},
		{5, domainErrors.ErrOrderInProgress, "/cancel"},
		{5, domainErrors.ErrNoPendingOrder, "You have no pending order"},
		{testApprover, domainErrors.ErrNoPendingOrder, "No pending order for that user."},
		{testApprover, domainErrors.ErrNoAwaitingOrder, "No pending order for that user."},
		{testApprover, domainErrors.ErrNoConfirmedOrder, "No confirmed order"},
		{testApprover, domainErrors.ErrAlreadyConfirmed, "already confirmed"},
		{testApprover, fmt.Errorf("confirm: %w", domainErrors.Dependency("issue grant", errors.New("boom"))), "Something went wrong"},
	}

	for _, tc := range cases {
		assert.Contains(t, n.failureText(tc.chatID, tc.err), tc.want, "error %v", tc.err)
	}

	require.NoError(t, n.Failure(context.Background(), 5, domainErrors.ErrPlanNotFound))
	calls := api.CallsTo("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "5", calls[0].Fields["chat_id"])
}

func TestPlanLabel(t *testing.T) {
	assert.Equal(t, "1 Month (10000 Ks)", planLabel(model.Plan{DurationMonths: 1, Price: decimal.NewFromInt(10000)}))
	assert.Equal(t, "6 Months (50000 Ks)", planLabel(model.Plan{DurationMonths: 6, Price: decimal.NewFromInt(50000)}))
	assert.Equal(t, "unknown date", formatExpiry(nil))
}
