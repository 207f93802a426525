//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/usecase"
)

type reconcileDeps struct {
	attempts    *MockAttemptRepo
	orders      *MockOrderRepo
	memberships *MockMembershipRepo
	gateway     *MockGateway
	notifier    *MockNotifier
	tm          *MockTxManager
	uc          usecase.ReconcileUseCase
}

func newReconcileDeps() *reconcileDeps {
	d := &reconcileDeps{
		attempts:    NewMockAttemptRepo(),
		orders:      NewMockOrderRepo(),
		memberships: NewMockMembershipRepo(),
		gateway:     &MockGateway{Provider: model.ProviderVNPay},
		notifier:    &MockNotifier{},
		tm:          NewMockTxManager(),
	}
	gateways := map[model.PaymentProvider]adapter.PaymentGateway{
		model.ProviderVNPay: d.gateway,
		model.ProviderMoMo:  &MockGateway{Provider: model.ProviderMoMo},
	}
	d.uc = usecase.NewReconcileUseCase(d.attempts, d.orders, d.memberships, gateways, d.tm, d.notifier, newTestLogger())
	return d
}

// seedPendingPayment stores a pending order plus a pending attempt for it and
// returns the attempt.
func (d *reconcileDeps) seedPendingPayment(ctx context.Context, orderRef string, amount decimal.Decimal) *model.PaymentAttempt {
	start := time.Now()
	order := &model.SubscriptionOrder{
		ID:        "order-123",
		MemberID:  "member-1",
		PackageID: "pkg-1",
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Status:    model.OrderStatusPending,
		Price:     amount,
		CreatedAt: start,
	}
	d.orders.Save(ctx, nil, order)

	attempt := &model.PaymentAttempt{
		ID:        "attempt-1",
		OrderRef:  orderRef,
		OrderID:   order.ID,
		MemberID:  order.MemberID,
		Provider:  model.ProviderVNPay,
		Amount:    amount,
		Status:    model.PaymentStatusPending,
		CreatedAt: start,
	}
	d.attempts.Create(ctx, nil, attempt)
	return attempt
}

func successCallback(orderRef string, amount decimal.Decimal) model.CallbackResult {
	return model.CallbackResult{
		OrderRef:       orderRef,
		DeclaredAmount: amount,
		ResultCode:     "00",
		ProviderTxnRef: "VNP14212345",
		Success:        true,
		SignatureValid: true,
	}
}

func TestReconcileUC_HandleCallback(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(450000)

	t.Run("successful callback settles payment and activates order", func(t *testing.T) {
		// --- Arrange ---
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, amount)
		}

		// --- Act ---
		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		// --- Assert ---
		if decision.Outcome != model.OutcomeAcknowledged {
			t.Fatalf("expected acknowledged, got %s", decision.Outcome)
		}
		if !decision.Applied {
			t.Error("expected the first delivery to apply the transition")
		}
		stored := d.attempts.get(attempt.ID)
		if stored.Status != model.PaymentStatusCompleted {
			t.Errorf("expected attempt completed, got %s", stored.Status)
		}
		if stored.ProviderTxnRef == nil || *stored.ProviderTxnRef != "VNP14212345" {
			t.Error("expected provider txn ref to be recorded")
		}
		if d.orders.get("order-123").Status != model.OrderStatusActive {
			t.Error("expected order to be activated")
		}
		ms, err := d.memberships.Find(ctx, nil, "member-1")
		if err != nil {
			t.Fatalf("expected membership record, got %v", err)
		}
		if !ms.Active {
			t.Error("expected membership to be active")
		}
		kinds := d.notifier.kinds()
		if len(kinds) != 1 || kinds[0] != model.NotificationPaymentConfirmed {
			t.Errorf("expected one confirmation notification, got %v", kinds)
		}
	})

	t.Run("duplicate delivery acknowledges without reapplying", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, amount)
		}

		first := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelReturn, map[string]string{})
		second := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		if !first.Applied {
			t.Fatal("first delivery should apply")
		}
		if second.Outcome != model.OutcomeAcknowledged {
			t.Errorf("replay must still be acknowledged, got %s", second.Outcome)
		}
		if second.Applied {
			t.Error("replay must not reapply side effects")
		}
		if !second.PaymentSuccess {
			t.Error("replay of a completed attempt should report success")
		}
		if got := d.memberships.calls(); got != 1 {
			t.Errorf("membership must be extended exactly once, got %d calls", got)
		}
		if got := len(d.notifier.kinds()); got != 1 {
			t.Errorf("member must be notified exactly once, got %d", got)
		}
	})

	t.Run("failure after success does not flip the terminal state", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)

		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, amount)
		}
		d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		// Late failure delivery for the same attempt.
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			res := successCallback(attempt.OrderRef, amount)
			res.Success = false
			res.ResultCode = "24"
			return res
		}
		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelReturn, map[string]string{})

		if decision.Outcome != model.OutcomeAcknowledged {
			t.Errorf("late failure must be acknowledged, got %s", decision.Outcome)
		}
		if d.attempts.get(attempt.ID).Status != model.PaymentStatusCompleted {
			t.Error("terminal completed status must not change")
		}
	})

	t.Run("invalid signature mutates nothing", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			res := successCallback(attempt.OrderRef, amount)
			res.SignatureValid = false
			return res
		}

		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		if decision.Outcome != model.OutcomeInvalidSignature {
			t.Fatalf("expected invalid_signature, got %s", decision.Outcome)
		}
		if d.attempts.get(attempt.ID).Status != model.PaymentStatusPending {
			t.Error("forged callback must leave the attempt pending")
		}
		if d.orders.get("order-123").Status != model.OrderStatusPending {
			t.Error("forged callback must not activate the order")
		}
	})

	t.Run("unknown order ref is reported without mutation", func(t *testing.T) {
		d := newReconcileDeps()
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback("GYM-nope-REF", amount)
		}

		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		if decision.Outcome != model.OutcomeOrderNotFound {
			t.Fatalf("expected order_not_found, got %s", decision.Outcome)
		}
	})

	t.Run("amount mismatch leaves the attempt pending", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, decimal.NewFromInt(440000))
		}

		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		if decision.Outcome != model.OutcomeInvalidAmount {
			t.Fatalf("expected invalid_amount, got %s", decision.Outcome)
		}
		if d.attempts.get(attempt.ID).Status != model.PaymentStatusPending {
			t.Error("mismatched amount must not settle the attempt")
		}
	})

	t.Run("sub-cent difference is tolerated", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, amount.Add(decimal.NewFromFloat(0.005)))
		}

		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		if decision.Outcome != model.OutcomeAcknowledged || !decision.Applied {
			t.Fatalf("rounding slack within tolerance must settle, got %+v", decision)
		}
	})

	t.Run("provider failure code settles the attempt as failed", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			res := successCallback(attempt.OrderRef, amount)
			res.Success = false
			res.ResultCode = "24"
			return res
		}

		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelReturn, map[string]string{})

		if decision.Outcome != model.OutcomeAcknowledged || !decision.Applied {
			t.Fatalf("failure delivery should be acknowledged and applied, got %+v", decision)
		}
		if d.attempts.get(attempt.ID).Status != model.PaymentStatusFailed {
			t.Error("expected attempt to be failed")
		}
		if d.orders.get("order-123").Status != model.OrderStatusPending {
			t.Error("failed payment must not activate the order")
		}
		kinds := d.notifier.kinds()
		if len(kinds) != 1 || kinds[0] != model.NotificationPaymentFailed {
			t.Errorf("expected one failure notification, got %v", kinds)
		}
	})

	t.Run("membership expiry only moves forward", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		// Member already holds a longer membership from a previous package.
		far := time.Now().AddDate(1, 0, 0)
		d.memberships.ExtendExpiry(ctx, nil, "member-1", far)

		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, amount)
		}
		d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		ms, _ := d.memberships.Find(ctx, nil, "member-1")
		if !ms.ExpiryDate.Equal(far) {
			t.Errorf("expiry must stay at the later date, got %s", ms.ExpiryDate)
		}
	})

	t.Run("storage failure maps to internal error", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.gateway.ParseCallbackFunc = func(map[string]string) model.CallbackResult {
			return successCallback(attempt.OrderRef, amount)
		}
		d.attempts.SettleIfPendingFunc = func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, ref *string, at *time.Time) (bool, error) {
			return false, errBoom
		}

		decision := d.uc.HandleCallback(ctx, model.ProviderVNPay, model.ChannelIPN, map[string]string{})

		if decision.Outcome != model.OutcomeInternalError {
			t.Fatalf("expected internal_error, got %s", decision.Outcome)
		}
	})
}

func TestReconcileUC_ConfirmManual(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(450000)

	t.Run("confirms a pending attempt", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)

		got, err := d.uc.ConfirmManual(ctx, attempt.ID, "receipt 77")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Status != model.PaymentStatusCompleted {
			t.Errorf("expected completed, got %s", got.Status)
		}
		if d.orders.get("order-123").Status != model.OrderStatusActive {
			t.Error("expected order activated")
		}
	})

	t.Run("rejects an already settled attempt", func(t *testing.T) {
		d := newReconcileDeps()
		attempt := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
		d.attempts.SettleIfPending(ctx, nil, attempt.ID, model.PaymentStatusFailed, nil, nil)

		_, err := d.uc.ConfirmManual(ctx, attempt.ID, "")
		if !errors.Is(err, domain.ErrAttemptFinalized) {
			t.Fatalf("expected ErrAttemptFinalized, got %v", err)
		}
		if d.attempts.get(attempt.ID).Status != model.PaymentStatusFailed {
			t.Error("terminal failed status must not change")
		}
	})

	t.Run("missing attempt surfaces not found", func(t *testing.T) {
		d := newReconcileDeps()
		_, err := d.uc.ConfirmManual(ctx, "missing", "")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReconcileUC_ExpireStaleAttempts(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(450000)

	d := newReconcileDeps()
	old := d.seedPendingPayment(ctx, "GYM-order-123-REF", amount)
	// Age the attempt past the cutoff.
	stored := d.attempts.get(old.ID)
	stored.CreatedAt = time.Now().Add(-2 * time.Hour)

	fresh := &model.PaymentAttempt{
		ID:        "attempt-2",
		OrderRef:  "GYM-order-456-REF",
		OrderID:   "order-456",
		MemberID:  "member-2",
		Provider:  model.ProviderMoMo,
		Amount:    amount,
		Status:    model.PaymentStatusPending,
		CreatedAt: time.Now(),
	}
	d.attempts.Create(ctx, nil, fresh)

	n, err := d.uc.ExpireStaleAttempts(ctx, time.Now().Add(-time.Hour), 100)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired attempt, got %d", n)
	}
	if d.attempts.get(old.ID).Status != model.PaymentStatusExpired {
		t.Error("stale attempt should be expired")
	}
	if d.attempts.get(fresh.ID).Status != model.PaymentStatusPending {
		t.Error("fresh attempt must stay pending")
	}
}
