package model

import "github.com/shopspring/decimal"

// CallbackChannel distinguishes the two delivery paths a provider uses for the
// same payment result. Either may arrive first, or only one may arrive at all,
// so both run the identical reconciliation algorithm.
type CallbackChannel string

const (
	ChannelReturn CallbackChannel = "return" // user's browser redirected back to us
	ChannelIPN    CallbackChannel = "ipn"    // provider server-to-server push
)

// CallbackResult is the provider-neutral view of one callback payload.
// Gateway clients produce it defensively: malformed input yields
// SignatureValid=false with the other fields best-effort, never an error,
// so the endpoint can always answer with a provider-compliant code.
type CallbackResult struct {
	OrderRef       string
	DeclaredAmount decimal.Decimal // normalized to major VND units
	ResultCode     string          // provider result code, verbatim
	ProviderTxnRef string
	Success        bool // ResultCode indicates provider-side success
	SignatureValid bool
}

// CallbackOutcome is what the reconciliation engine decided about a callback.
// Gateways map outcomes to their exact wire acknowledgements.
type CallbackOutcome string

const (
	// OutcomeAcknowledged covers the completed transition, the recorded
	// failure, and every idempotent re-delivery: the provider must always
	// see success for these, or it keeps retrying.
	OutcomeAcknowledged     CallbackOutcome = "acknowledged"
	OutcomeInvalidSignature CallbackOutcome = "invalid_signature"
	OutcomeOrderNotFound    CallbackOutcome = "order_not_found"
	OutcomeInvalidAmount    CallbackOutcome = "invalid_amount"
	OutcomeInternalError    CallbackOutcome = "internal_error"
)

// Applied reports whether this caller won the race and performed the side
// effects (activation, membership extension, notification).
type CallbackDecision struct {
	Outcome        CallbackOutcome
	Applied        bool
	PaymentSuccess bool // provider-side result, valid when Outcome is acknowledged
	Attempt        *PaymentAttempt
}
