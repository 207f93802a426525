// File: internal/infra/adapters/payment/momo_gateway.go
package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ adapter.PaymentGateway = (*MoMoGateway)(nil)

// MoMoConfig is the immutable provider configuration injected at construction.
type MoMoConfig struct {
	PartnerCode string `yaml:"partner_code"`
	PartnerName string `yaml:"partner_name"`
	StoreID     string `yaml:"store_id"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	Endpoint    string `yaml:"endpoint"`     // initiation API, e.g. https://test-payment.momo.vn/v2/gateway/api/create
	RedirectURL string `yaml:"redirect_url"` // browser RETURN endpoint
	IPNURL      string `yaml:"ipn_url"`      // server-to-server IPN endpoint
	RequestType string `yaml:"request_type"` // e.g. captureWallet
	Lang        string `yaml:"lang"`
}

// MoMoGateway implements the wallet-style provider: a signed JSON initiation
// request over HTTP and HMAC-SHA256 callback signatures over raw (unescaped)
// canonical strings. Amounts travel in major VND units on both legs.
type MoMoGateway struct {
	cfg    MoMoConfig
	client *http.Client
}

func NewMoMoGateway(cfg MoMoConfig) (*MoMoGateway, error) {
	if cfg.PartnerCode == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Endpoint == "" {
		return nil, errors.New("momo: partner_code, access_key, secret_key and endpoint are required")
	}
	if cfg.RequestType == "" {
		cfg.RequestType = "captureWallet"
	}
	if cfg.Lang == "" {
		cfg.Lang = "vi"
	}
	return &MoMoGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (g *MoMoGateway) Name() model.PaymentProvider { return model.ProviderMoMo }

// CreatePaymentRequest signs and posts the initiation payload, returning the
// provider payUrl. Any transport or provider error is a creation failure; the
// caller settles the ledger row as failed rather than leaving it pending.
func (g *MoMoGateway) CreatePaymentRequest(ctx context.Context, orderRef string, amount decimal.Decimal, orderInfo, clientIP string) (string, error) {
	requestID := uuid.NewString()
	amountStr := amount.Truncate(0).String()

	signed := map[string]string{
		"accessKey":   g.cfg.AccessKey,
		"amount":      amountStr,
		"extraData":   "",
		"ipnUrl":      g.cfg.IPNURL,
		"orderId":     orderRef,
		"orderInfo":   orderInfo,
		"partnerCode": g.cfg.PartnerCode,
		"redirectUrl": g.cfg.RedirectURL,
		"requestId":   requestID,
		"requestType": g.cfg.RequestType,
	}
	signature := signPayload(g.cfg.SecretKey, canonicalize(signed, "signature", escapeNone, false), sha256.New)

	body := map[string]any{
		"partnerCode": g.cfg.PartnerCode,
		"partnerName": g.cfg.PartnerName,
		"storeId":     g.cfg.StoreID,
		"requestId":   requestID,
		"amount":      amountStr,
		"orderId":     orderRef,
		"orderInfo":   orderInfo,
		"redirectUrl": g.cfg.RedirectURL,
		"ipnUrl":      g.cfg.IPNURL,
		"lang":        g.cfg.Lang,
		"requestType": g.cfg.RequestType,
		"autoCapture": true,
		"extraData":   "",
		"orderGroupId": "",
		"signature":   signature,
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("momo create request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayURL     string `json:"payUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("momo create decode: %w", err)
	}
	if out.ResultCode != 0 || out.PayURL == "" {
		return "", fmt.Errorf("momo create rejected: code=%d message=%q", out.ResultCode, out.Message)
	}
	return out.PayURL, nil
}

// momoCallbackFields is the exact IPN field set MoMo signs, in addition to our
// accessKey. Empty values stay in the canonical string for this provider.
var momoCallbackFields = []string{
	"amount", "extraData", "message", "orderId", "orderInfo", "orderType",
	"partnerCode", "payType", "requestId", "responseTime", "resultCode", "transId",
}

func (g *MoMoGateway) ParseCallback(params map[string]string) model.CallbackResult {
	res := model.CallbackResult{
		OrderRef:       params["orderId"],
		ResultCode:     params["resultCode"],
		ProviderTxnRef: params["transId"],
		Success:        params["resultCode"] == "0",
	}
	if amt, err := decimal.NewFromString(params["amount"]); err == nil {
		res.DeclaredAmount = amt
	}

	signed := map[string]string{"accessKey": g.cfg.AccessKey}
	for _, k := range momoCallbackFields {
		signed[k] = params[k]
	}
	res.SignatureValid = verifyPayload(g.cfg.SecretKey, signed, "signature", params["signature"], sha256.New, escapeNone, false)
	return res
}

// MoMo acknowledges a delivered IPN with 204 No Content; rejections carry the
// provider result codes it expects verbatim (13 bad merchant signature,
// 22 invalid transaction amount, 42 unknown orderId, 99 unknown error).
func (g *MoMoGateway) Ack(outcome model.CallbackOutcome) adapter.ProviderAck {
	switch outcome {
	case model.OutcomeAcknowledged:
		return adapter.ProviderAck{HTTPStatus: http.StatusNoContent}
	case model.OutcomeInvalidSignature:
		return momoErrAck(13, "Merchant authentication failed")
	case model.OutcomeInvalidAmount:
		return momoErrAck(22, "Invalid transaction amount")
	case model.OutcomeOrderNotFound:
		return momoErrAck(42, "Invalid orderId or orderId is not found")
	default:
		return adapter.ProviderAck{
			HTTPStatus:  http.StatusInternalServerError,
			ContentType: "application/json",
			Body:        `{"resultCode":99,"message":"Unknown error"}`,
		}
	}
}

func momoErrAck(code int, message string) adapter.ProviderAck {
	return adapter.ProviderAck{
		HTTPStatus:  http.StatusBadRequest,
		ContentType: "application/json",
		Body:        fmt.Sprintf(`{"resultCode":%d,"message":%q}`, code, message),
	}
}
