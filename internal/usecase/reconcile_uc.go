package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/metrics"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase is the single entry point for payment results. Both
// callback channels of both providers, the manual confirmation path and the
// stale-attempt sweep all converge here, so the pending->terminal transition
// has exactly one owner.
type ReconcileUseCase interface {
	// HandleCallback runs the reconciliation algorithm for one callback
	// delivery. It never returns an error: every malfunction maps to an
	// outcome the gateway can acknowledge on the wire.
	HandleCallback(ctx context.Context, provider model.PaymentProvider, channel model.CallbackChannel, params map[string]string) model.CallbackDecision

	// ConfirmManual settles a pending attempt as completed on behalf of a
	// manager (cash or bank transfer taken at the front desk).
	ConfirmManual(ctx context.Context, attemptID, managerNote string) (*model.PaymentAttempt, error)

	// ExpireStaleAttempts closes pending attempts the provider never
	// confirmed. Returns how many attempts were expired.
	ExpireStaleAttempts(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type reconcileUC struct {
	attempts    repository.PaymentAttemptRepository
	orders      repository.SubscriptionOrderRepository
	memberships repository.MembershipRepository
	gateways    map[model.PaymentProvider]adapter.PaymentGateway
	tm          repository.TransactionManager
	notifier    adapter.Notifier
	log         *zerolog.Logger
}

func NewReconcileUseCase(
	attempts repository.PaymentAttemptRepository,
	orders repository.SubscriptionOrderRepository,
	memberships repository.MembershipRepository,
	gateways map[model.PaymentProvider]adapter.PaymentGateway,
	tm repository.TransactionManager,
	notifier adapter.Notifier,
	log *zerolog.Logger,
) *reconcileUC {
	return &reconcileUC{
		attempts:    attempts,
		orders:      orders,
		memberships: memberships,
		gateways:    gateways,
		tm:          tm,
		notifier:    notifier,
		log:         log,
	}
}

func (u *reconcileUC) HandleCallback(ctx context.Context, provider model.PaymentProvider, channel model.CallbackChannel, params map[string]string) model.CallbackDecision {
	gw, ok := u.gateways[provider]
	if !ok {
		return model.CallbackDecision{Outcome: model.OutcomeInternalError}
	}
	res := gw.ParseCallback(params)

	log := u.log.With().
		Str("provider", string(provider)).
		Str("channel", string(channel)).
		Str("order_ref", res.OrderRef).
		Logger()

	// Forged or corrupted payload: reject before touching any state.
	if !res.SignatureValid {
		log.Warn().Msg("callback signature rejected")
		return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeInvalidSignature})
	}

	attempt, err := u.attempts.FindByOrderRef(ctx, repository.NoTX, res.OrderRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("callback for unknown order ref")
			return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeOrderNotFound})
		}
		log.Error().Err(err).Msg("attempt lookup failed")
		return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeInternalError})
	}

	// Replay of an already settled attempt: acknowledge without side effects
	// so the provider stops retrying. The stored state stays untouched even
	// if the replay disagrees with it.
	if attempt.Status.IsTerminal() {
		metrics.IncCallbackReplay(string(provider), string(channel))
		return u.decide(provider, channel, model.CallbackDecision{
			Outcome:        model.OutcomeAcknowledged,
			PaymentSuccess: attempt.Status == model.PaymentStatusCompleted,
			Attempt:        attempt,
		})
	}

	// Amount integrity: the declared amount must match what we stored at
	// initiation. A tampered amount never settles the attempt.
	if !attempt.AmountMatches(res.DeclaredAmount) {
		log.Warn().
			Str("declared", res.DeclaredAmount.String()).
			Str("stored", attempt.Amount.String()).
			Msg("callback amount mismatch")
		return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeInvalidAmount, Attempt: attempt})
	}

	if !res.Success {
		applied, err := u.settleFailed(ctx, attempt, res.ProviderTxnRef)
		if err != nil {
			log.Error().Err(err).Msg("failed settle errored")
			return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeInternalError, Attempt: attempt})
		}
		if applied {
			metrics.IncPaymentSettled(string(provider), string(model.PaymentStatusFailed))
			u.notify(ctx, attempt.MemberID, "Payment failed",
				fmt.Sprintf("Your payment %s was not completed (provider code %s). You can try again from your pending order.", attempt.OrderRef, res.ResultCode),
				model.NotificationPaymentFailed)
			log.Info().Str("result_code", res.ResultCode).Msg("payment marked failed")
		}
		return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeAcknowledged, Applied: applied, Attempt: attempt})
	}

	applied, err := u.settleCompleted(ctx, attempt, res.ProviderTxnRef)
	if err != nil {
		log.Error().Err(err).Msg("success settle errored")
		return u.decide(provider, channel, model.CallbackDecision{Outcome: model.OutcomeInternalError, Attempt: attempt})
	}
	if applied {
		metrics.IncPaymentSettled(string(provider), string(model.PaymentStatusCompleted))
		metrics.AddPaymentRevenue(string(provider), attempt.Amount.InexactFloat64())
		u.notify(ctx, attempt.MemberID, "Payment confirmed",
			fmt.Sprintf("Your payment %s was confirmed and your subscription is now active.", attempt.OrderRef),
			model.NotificationPaymentConfirmed)
		log.Info().Msg("payment completed, order activated")
	}
	return u.decide(provider, channel, model.CallbackDecision{
		Outcome:        model.OutcomeAcknowledged,
		Applied:        applied,
		PaymentSuccess: true,
		Attempt:        attempt,
	})
}

// settleCompleted performs the winner's side effects in one transaction:
// settle the attempt, activate the order, extend the membership. The
// conditional update on the attempt decides the race; losers see applied=false
// and change nothing.
func (u *reconcileUC) settleCompleted(ctx context.Context, attempt *model.PaymentAttempt, providerTxnRef string) (bool, error) {
	applied := false
	now := time.Now()
	var ref *string
	if providerTxnRef != "" {
		ref = &providerTxnRef
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.attempts.SettleIfPending(ctx, tx, attempt.ID, model.PaymentStatusCompleted, ref, &now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		order, err := u.orders.FindByID(ctx, tx, attempt.OrderID)
		if err != nil {
			return err
		}

		// Late confirmation shifts the window forward: the member paid for the
		// full package duration, not for the days the gateway sat on it.
		endDate := order.EndDate
		if now.After(order.StartDate) {
			endDate = now.Add(order.EndDate.Sub(order.StartDate))
		}
		if _, err := u.orders.ActivateIfPending(ctx, tx, order.ID, endDate); err != nil {
			return err
		}
		if err := u.memberships.ExtendExpiry(ctx, tx, attempt.MemberID, endDate); err != nil {
			return err
		}

		applied = true
		attempt.Status = model.PaymentStatusCompleted
		attempt.ProviderTxnRef = ref
		attempt.ConfirmedAt = &now
		return nil
	})
	return applied, err
}

func (u *reconcileUC) settleFailed(ctx context.Context, attempt *model.PaymentAttempt, providerTxnRef string) (bool, error) {
	now := time.Now()
	var ref *string
	if providerTxnRef != "" {
		ref = &providerTxnRef
	}
	ok, err := u.attempts.SettleIfPending(ctx, repository.NoTX, attempt.ID, model.PaymentStatusFailed, ref, &now)
	if err != nil {
		return false, err
	}
	if ok {
		attempt.Status = model.PaymentStatusFailed
		attempt.ProviderTxnRef = ref
		attempt.ConfirmedAt = &now
	}
	return ok, nil
}

func (u *reconcileUC) ConfirmManual(ctx context.Context, attemptID, managerNote string) (*model.PaymentAttempt, error) {
	attempt, err := u.attempts.FindByID(ctx, repository.NoTX, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return attempt, domain.ErrAttemptFinalized
	}

	ref := "manual"
	if managerNote != "" {
		ref = "manual:" + managerNote
	}
	applied, err := u.settleCompleted(ctx, attempt, ref)
	if err != nil {
		return nil, err
	}
	if !applied {
		return attempt, domain.ErrAttemptFinalized
	}
	metrics.IncPaymentSettled(string(attempt.Provider), string(model.PaymentStatusCompleted))
	metrics.AddPaymentRevenue(string(attempt.Provider), attempt.Amount.InexactFloat64())
	u.notify(ctx, attempt.MemberID, "Payment confirmed",
		fmt.Sprintf("Your payment %s was confirmed and your subscription is now active.", attempt.OrderRef),
		model.NotificationPaymentConfirmed)
	u.log.Info().Str("attempt_id", attemptID).Msg("payment confirmed manually")
	return attempt, nil
}

func (u *reconcileUC) ExpireStaleAttempts(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	stale, err := u.attempts.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, a := range stale {
		ok, err := u.attempts.SettleIfPending(ctx, repository.NoTX, a.ID, model.PaymentStatusExpired, nil, nil)
		if err != nil {
			u.log.Error().Err(err).Str("attempt_id", a.ID).Msg("expire settle errored")
			continue
		}
		if ok {
			expired++
			metrics.IncPaymentSettled(string(a.Provider), string(model.PaymentStatusExpired))
		}
	}
	if expired > 0 {
		metrics.AddAttemptsExpired(expired)
		u.log.Info().Int("count", expired).Msg("stale payment attempts expired")
	}
	return expired, nil
}

func (u *reconcileUC) decide(provider model.PaymentProvider, channel model.CallbackChannel, d model.CallbackDecision) model.CallbackDecision {
	metrics.IncCallback(string(provider), string(channel), string(d.Outcome))
	return d
}

// notify is best-effort: the state transition has already committed, a broken
// notifier must not surface as a callback failure.
func (u *reconcileUC) notify(ctx context.Context, memberID, title, message string, kind model.NotificationKind) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, memberID, title, message, kind); err != nil {
		u.log.Warn().Err(err).Str("member_id", memberID).Msg("notification dispatch failed")
	}
}
