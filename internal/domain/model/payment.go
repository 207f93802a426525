package model

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type PaymentProvider string

const (
	ProviderMoMo   PaymentProvider = "momo"   // wallet gateway, HMAC-SHA256, amounts in major VND units
	ProviderVNPay  PaymentProvider = "vnpay"  // bank gateway, HMAC-SHA512, amounts sent x100
	ProviderManual PaymentProvider = "manual" // cash / bank transfer verified by a manager
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // redirected to gateway; awaiting callbacks
	PaymentStatusCompleted PaymentStatus = "completed" // provider confirmed; order activated
	PaymentStatusFailed    PaymentStatus = "failed"    // provider reported failure or initiation failed
	PaymentStatusExpired   PaymentStatus = "expired"   // never confirmed within the provider window
)

// IsTerminal reports whether the status admits no further transition.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusExpired
}

// PaymentAttempt is one row of the append-only payment ledger. OrderRef is the
// join key between this system and the provider: it is generated here, sent
// outbound with the initiation request, and echoed back in every callback.
// Rows are never deleted; failed and expired attempts are kept for audit.
type PaymentAttempt struct {
	ID             string // UUID
	OrderRef       string // external order reference, unique, immutable
	OrderID        string // UUID -> SubscriptionOrder
	MemberID       string // UUID of the paying member
	Provider       PaymentProvider
	Amount         decimal.Decimal // major VND units
	Status         PaymentStatus
	ProviderTxnRef *string // provider transaction id, set once confirmed
	CreatedAt      time.Time
	ConfirmedAt    *time.Time
}

// NewOrderRef builds a fresh external order reference for an order. The ULID
// suffix keeps references unique even when two payment URLs are requested for
// the same order concurrently.
func NewOrderRef(orderID string) string {
	return fmt.Sprintf("GYM-%s-%s", orderID, ulid.MustNew(ulid.Now(), rand.Reader).String())
}

// AmountTolerance is the maximum absolute difference allowed between the
// declared callback amount and the stored amount (rounding slack, not more).
var AmountTolerance = decimal.NewFromFloat(0.01)

// AmountMatches compares a declared callback amount against the stored one.
func (p *PaymentAttempt) AmountMatches(declared decimal.Decimal) bool {
	return declared.Sub(p.Amount).Abs().LessThanOrEqual(AmountTolerance)
}
