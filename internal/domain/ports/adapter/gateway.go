package adapter

import (
	"context"

	"gym-membership-backend/internal/domain/model"

	"github.com/shopspring/decimal"
)

// ProviderAck is the exact wire response a provider expects on its IPN
// channel. Status codes and bodies are part of each provider's contract and
// must be reproduced bit-exact; the provider's retry behavior depends on them.
type ProviderAck struct {
	HTTPStatus  int
	ContentType string
	Body        string
}

// PaymentGateway is the hex port for payment providers. Two variants exist
// (MoMo-style and VNPay-style); the reconciliation engine selects by the
// provider tag stored on each attempt and never branches on provider itself.
type PaymentGateway interface {
	Name() model.PaymentProvider

	// CreatePaymentRequest builds and (if the provider requires it) sends the
	// signed initiation request, returning the URL to redirect the member to.
	// Amount is in major VND units; unit conversion is the client's concern.
	CreatePaymentRequest(ctx context.Context, orderRef string, amount decimal.Decimal, orderInfo, clientIP string) (payURL string, err error)

	// ParseCallback extracts and verifies one callback payload. It never
	// fails: malformed input comes back with SignatureValid=false.
	ParseCallback(params map[string]string) model.CallbackResult

	// Ack maps a reconciliation outcome to this provider's IPN response.
	Ack(outcome model.CallbackOutcome) ProviderAck
}

// TransactionQuerier is implemented by gateways that support server-side
// transaction lookup (VNPay querydr). Used by the admin re-query endpoint.
type TransactionQuerier interface {
	QueryTransaction(ctx context.Context, orderRef string, txnDate string) (map[string]any, error)
}
