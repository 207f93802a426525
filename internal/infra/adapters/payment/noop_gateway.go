package payment

import (
	"context"
	"net/http"
	"sync"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"

	"github.com/shopspring/decimal"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway to use in tests and the manual
// (cash / bank transfer) provider slot: it never talks to a network and its
// callbacks always verify.
type NoopGateway struct {
	mu      sync.Mutex
	intents map[string]decimal.Decimal // orderRef -> amount
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{intents: make(map[string]decimal.Decimal)}
}

func (g *NoopGateway) Name() model.PaymentProvider { return model.ProviderManual }

func (g *NoopGateway) CreatePaymentRequest(ctx context.Context, orderRef string, amount decimal.Decimal, orderInfo, clientIP string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[orderRef] = amount
	return "https://example.test/pay/" + orderRef, nil
}

func (g *NoopGateway) ParseCallback(params map[string]string) model.CallbackResult {
	amt, _ := decimal.NewFromString(params["amount"])
	return model.CallbackResult{
		OrderRef:       params["orderRef"],
		DeclaredAmount: amt,
		ResultCode:     params["resultCode"],
		ProviderTxnRef: params["txnRef"],
		Success:        params["resultCode"] == "0",
		SignatureValid: true,
	}
}

func (g *NoopGateway) Ack(outcome model.CallbackOutcome) adapter.ProviderAck {
	if outcome == model.OutcomeAcknowledged {
		return adapter.ProviderAck{HTTPStatus: http.StatusOK, ContentType: "text/plain", Body: "OK"}
	}
	return adapter.ProviderAck{HTTPStatus: http.StatusBadRequest, ContentType: "text/plain", Body: string(outcome)}
}
