package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/infra/api"
	"gym-membership-backend/internal/infra/i18n"
	"gym-membership-backend/internal/usecase"
)

// Server is the public HTTP surface: the member-facing order/payment API plus
// the provider callback endpoints (browser RETURN and server-to-server IPN).
type Server struct {
	orderUC     usecase.OrderUseCase
	paymentUC   usecase.PaymentUseCase
	reconcileUC usecase.ReconcileUseCase
	notifUC     usecase.NotificationUseCase
	gateways    map[model.PaymentProvider]adapter.PaymentGateway
	translators map[string]*i18n.Translator
	log         *zerolog.Logger
	server      *http.Server
}

func NewServer(
	orderUC usecase.OrderUseCase,
	paymentUC usecase.PaymentUseCase,
	reconcileUC usecase.ReconcileUseCase,
	notifUC usecase.NotificationUseCase,
	gateways map[model.PaymentProvider]adapter.PaymentGateway,
	log *zerolog.Logger,
) *Server {
	translators := map[string]*i18n.Translator{}
	for _, lang := range []string{"en", "vi"} {
		tr, err := i18n.NewTranslator(i18n.LocalesFS, lang)
		if err != nil {
			log.Fatal().Err(err).Str("lang", lang).Msg("failed to load locale")
		}
		translators[lang] = tr
	}
	return &Server{
		orderUC:     orderUC,
		paymentUC:   paymentUC,
		reconcileUC: reconcileUC,
		notifUC:     notifUC,
		gateways:    gateways,
		translators: translators,
		log:         log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/packages", s.handleListPackages)
		r.Post("/orders", s.handlePlaceOrder)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.Get("/members/{id}/orders", s.handleListOrders)
		r.Get("/members/{id}/notifications", s.handleListNotifications)
		r.Post("/payments", s.handleInitiatePayment)
	})

	// Callback endpoints. RETURN renders a result page for the member's
	// browser; IPN answers with the provider's exact wire contract.
	r.Route("/payments", func(r chi.Router) {
		r.Get("/momo/return", s.handleReturn(model.ProviderMoMo))
		r.Post("/momo/ipn", s.handleIPN(model.ProviderMoMo))
		r.Get("/vnpay/return", s.handleReturn(model.ProviderVNPay))
		r.Get("/vnpay/ipn", s.handleIPN(model.ProviderVNPay))
	})

	return api.Chain(r,
		api.TraceID(s.log),
		api.Recover(s.log),
		api.RequestLog(s.log),
		api.Timeout(30*time.Second),
	)
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", port).Msg("public http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ---- member API ----

type placeOrderRequest struct {
	MemberID  string `json:"member_id"`
	PackageID string `json:"package_id"`
	StartDate string `json:"start_date,omitempty"` // RFC 3339, optional
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	var start time.Time
	if req.StartDate != "" {
		var err error
		start, err = time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			http.Error(w, "Invalid start_date", http.StatusBadRequest)
			return
		}
	}

	order, err := s.orderUC.PlaceOrder(r.Context(), req.MemberID, req.PackageID, start)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orderUC.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orderUC.ListOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.orderUC.ListPackages(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkgs)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifs, err := s.notifUC.ListByMember(r.Context(), chi.URLParam(r, "id"), 50)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifs)
}

type initiatePaymentRequest struct {
	OrderID  string `json:"order_id"`
	Provider string `json:"provider"` // "momo" | "vnpay"
}

type initiatePaymentResponse struct {
	AttemptID string `json:"attempt_id"`
	OrderRef  string `json:"order_ref"`
	PayURL    string `json:"pay_url"`
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	attempt, payURL, err := s.paymentUC.Initiate(r.Context(), req.OrderID, model.PaymentProvider(req.Provider), clientIP(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, initiatePaymentResponse{
		AttemptID: attempt.ID,
		OrderRef:  attempt.OrderRef,
		PayURL:    payURL,
	})
}

// ---- provider callbacks ----

// handleIPN feeds the server-to-server push through the reconciliation engine
// and answers with the provider's wire contract, bit-exact.
func (s *Server) handleIPN(provider model.PaymentProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := s.callbackParams(r)
		if err != nil {
			// Unparseable body still has to produce a provider-shaped answer.
			s.writeAck(w, provider, model.OutcomeInvalidSignature)
			return
		}
		decision := s.reconcileUC.HandleCallback(r.Context(), provider, model.ChannelIPN, params)
		s.writeAck(w, provider, decision.Outcome)
	}
}

// handleReturn runs the identical reconciliation for the browser redirect and
// renders a human-readable result page instead of a provider ack.
func (s *Server) handleReturn(provider model.PaymentProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tr := s.translatorFor(r)
		params, err := s.callbackParams(r)
		if err != nil {
			s.renderResult(w, tr, http.StatusBadRequest, false, "result.unreadable")
			return
		}
		decision := s.reconcileUC.HandleCallback(r.Context(), provider, model.ChannelReturn, params)

		switch decision.Outcome {
		case model.OutcomeAcknowledged:
			if decision.PaymentSuccess {
				s.renderResult(w, tr, http.StatusOK, true, "result.confirmed")
			} else {
				s.renderResult(w, tr, http.StatusOK, false, "result.not_completed")
			}
		case model.OutcomeInvalidSignature:
			s.renderResult(w, tr, http.StatusBadRequest, false, "result.unverified")
		case model.OutcomeOrderNotFound:
			s.renderResult(w, tr, http.StatusNotFound, false, "result.not_found")
		case model.OutcomeInvalidAmount:
			s.renderResult(w, tr, http.StatusBadRequest, false, "result.amount_mismatch")
		default:
			s.renderResult(w, tr, http.StatusInternalServerError, false, "result.internal")
		}
	}
}

// translatorFor picks the result page language: an explicit lang parameter
// wins, then the VNPay locale field, then English.
func (s *Server) translatorFor(r *http.Request) *i18n.Translator {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		if loc := r.URL.Query().Get("vnp_Locale"); loc == "vn" {
			lang = "vi"
		}
	}
	if tr, ok := s.translators[lang]; ok {
		return tr
	}
	return s.translators["en"]
}

// callbackParams flattens either the query string (VNPay, MoMo RETURN) or a
// JSON object body (MoMo IPN) into the provider-neutral parameter map.
func (s *Server) callbackParams(r *http.Request) (map[string]string, error) {
	params := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	if r.Method == http.MethodPost {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		for k, v := range body {
			switch t := v.(type) {
			case string:
				params[k] = t
			case float64:
				// JSON numbers arrive as float64; amounts and result codes
				// must keep their integer form for signature verification.
				params[k] = trimFloat(t)
			case bool:
				params[k] = fmt.Sprintf("%t", t)
			case nil:
				params[k] = ""
			default:
				b, _ := json.Marshal(t)
				params[k] = string(b)
			}
		}
	}
	return params, nil
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func (s *Server) writeAck(w http.ResponseWriter, provider model.PaymentProvider, outcome model.CallbackOutcome) {
	gw, ok := s.gateways[provider]
	if !ok {
		http.Error(w, "unknown provider", http.StatusNotFound)
		return
	}
	ack := gw.Ack(outcome)
	if ack.ContentType != "" {
		w.Header().Set("Content-Type", ack.ContentType)
	}
	w.WriteHeader(ack.HTTPStatus)
	if ack.Body != "" {
		_, _ = w.Write([]byte(ack.Body))
	}
}

var resultPage = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width,initial-scale=1" />
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,Arial,sans-serif;margin:2rem;}
.card{max-width:560px;border:1px solid #ddd;border-radius:12px;padding:24px;}
.ok{color:#057a55} .fail{color:#b00020}
</style>
</head>
<body>
<div class="card">
  <h2 class="{{if .OK}}ok{{else}}fail{{end}}">{{.Title}}</h2>
  <p>{{.Msg}}</p>
  <p>{{.Close}}</p>
</div>
</body>
</html>`))

func (s *Server) renderResult(w http.ResponseWriter, tr *i18n.Translator, code int, ok bool, msgKey string) {
	titleKey := "result.title.fail"
	if ok {
		titleKey = "result.title.ok"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = resultPage.Execute(w, struct {
		Lang  string
		OK    bool
		Title string
		Msg   string
		Close string
	}{Lang: tr.T("lang.code"), OK: ok, Title: tr.T(titleKey), Msg: tr.T(msgKey), Close: tr.T("result.close")})
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrOrderNotPayable):
		http.Error(w, "Order is not payable", http.StatusConflict)
	case errors.Is(err, domain.ErrRateLimited):
		http.Error(w, "Too many payment requests, try again later", http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrGatewayRequest):
		http.Error(w, "Payment provider rejected the request", http.StatusBadGateway)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}
