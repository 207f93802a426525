// File: internal/infra/adapters/payment/vnpay_gateway.go
package payment

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"

	"github.com/shopspring/decimal"
)

var _ adapter.PaymentGateway = (*VNPayGateway)(nil)
var _ adapter.TransactionQuerier = (*VNPayGateway)(nil)

const vnpDateLayout = "20060102150405"

// VNPayConfig is the immutable provider configuration injected at construction.
type VNPayConfig struct {
	TmnCode    string `yaml:"tmn_code"`
	HashSecret string `yaml:"hash_secret"`
	PayURL     string `yaml:"pay_url"` // hosted payment page, e.g. https://sandbox.vnpayment.vn/paymentv2/vpcpay.html
	APIURL     string `yaml:"api_url"` // querydr endpoint
	ReturnURL  string `yaml:"return_url"`
	Version    string `yaml:"version"`
	Locale     string `yaml:"locale"`
	ExpireIn   time.Duration `yaml:"expire_in"` // payment window, default 15m
}

// VNPayGateway implements the bank-style provider. Initiation builds a signed
// redirect URL locally (no network call); callbacks carry HMAC-SHA512
// signatures over query-escaped canonical strings with empty fields dropped.
//
// Unit rule for this provider, applied in exactly two places: outbound
// vnp_Amount is the stored amount times 100; the declared callback amount is
// divided by 100 before comparison. No other call site converts.
type VNPayGateway struct {
	cfg    VNPayConfig
	client *http.Client
	now    func() time.Time
}

func NewVNPayGateway(cfg VNPayConfig) (*VNPayGateway, error) {
	if cfg.TmnCode == "" || cfg.HashSecret == "" || cfg.PayURL == "" {
		return nil, errors.New("vnpay: tmn_code, hash_secret and pay_url are required")
	}
	if cfg.Version == "" {
		cfg.Version = "2.1.0"
	}
	if cfg.Locale == "" {
		cfg.Locale = "vn"
	}
	if cfg.ExpireIn <= 0 {
		cfg.ExpireIn = 15 * time.Minute
	}
	return &VNPayGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}, nil
}

func (g *VNPayGateway) Name() model.PaymentProvider { return model.ProviderVNPay }

func (g *VNPayGateway) CreatePaymentRequest(ctx context.Context, orderRef string, amount decimal.Decimal, orderInfo, clientIP string) (string, error) {
	now := g.now()
	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     amount.Shift(2).Truncate(0).String(),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     orderRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     g.cfg.Locale,
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.Format(vnpDateLayout),
		"vnp_ExpireDate": now.Add(g.cfg.ExpireIn).Format(vnpDateLayout),
	}

	query := canonicalize(params, "vnp_SecureHash", escapeQuery, true)
	hash := signPayload(g.cfg.HashSecret, query, sha512.New)
	return fmt.Sprintf("%s?%s&vnp_SecureHash=%s", g.cfg.PayURL, query, hash), nil
}

func (g *VNPayGateway) ParseCallback(params map[string]string) model.CallbackResult {
	res := model.CallbackResult{
		OrderRef:       params["vnp_TxnRef"],
		ResultCode:     params["vnp_ResponseCode"],
		ProviderTxnRef: params["vnp_TransactionNo"],
		Success:        params["vnp_ResponseCode"] == "00",
	}
	if amt, err := decimal.NewFromString(params["vnp_Amount"]); err == nil {
		res.DeclaredAmount = amt.Shift(-2)
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		signed[k] = v
	}
	res.SignatureValid = verifyPayload(g.cfg.HashSecret, signed, "vnp_SecureHash", params["vnp_SecureHash"], sha512.New, escapeQuery, true)
	return res
}

// VNPay polls the IPN endpoint until it reads one of these RspCode bodies;
// every status is delivered with HTTP 200 per its integration contract.
func (g *VNPayGateway) Ack(outcome model.CallbackOutcome) adapter.ProviderAck {
	var code, message string
	switch outcome {
	case model.OutcomeAcknowledged:
		code, message = "00", "Confirm Success"
	case model.OutcomeInvalidSignature:
		code, message = "97", "Invalid Checksum"
	case model.OutcomeOrderNotFound:
		code, message = "01", "Order Not Found"
	case model.OutcomeInvalidAmount:
		code, message = "04", "Invalid Amount"
	default:
		code, message = "99", "Unknown Error"
	}
	return adapter.ProviderAck{
		HTTPStatus:  http.StatusOK,
		ContentType: "application/json",
		Body:        fmt.Sprintf(`{"RspCode":"%s","Message":"%s"}`, code, message),
	}
}

// QueryTransaction asks VNPay for the current state of a transaction
// (querydr). Used by the admin re-query endpoint for stuck attempts.
func (g *VNPayGateway) QueryTransaction(ctx context.Context, orderRef string, txnDate string) (map[string]any, error) {
	if g.cfg.APIURL == "" {
		return nil, errors.New("vnpay: api_url not configured")
	}
	now := g.now()
	params := map[string]string{
		"vnp_Version":         g.cfg.Version,
		"vnp_Command":         "querydr",
		"vnp_TmnCode":         g.cfg.TmnCode,
		"vnp_TxnRef":          orderRef,
		"vnp_OrderInfo":       fmt.Sprintf("Query transaction %s", orderRef),
		"vnp_TransactionDate": txnDate,
		"vnp_CreateDate":      now.Format(vnpDateLayout),
		"vnp_IpAddr":          "127.0.0.1",
	}
	query := canonicalize(params, "vnp_SecureHash", escapeQuery, true)
	params["vnp_SecureHash"] = signPayload(g.cfg.HashSecret, query, sha512.New)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vnpay querydr: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vnpay querydr http %d", resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("vnpay querydr decode: %w", err)
	}
	return out, nil
}
