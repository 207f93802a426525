package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/usecase"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.checkPassword(req.Password) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("manager login rejected")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// statsHandler serves revenue totals for the dashboard.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		week, err := statsUC.Revenue(ctx, "week")
		if err != nil {
			http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
			return
		}
		month, err := statsUC.Revenue(ctx, "month")
		if err != nil {
			http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
			return
		}
		year, err := statsUC.Revenue(ctx, "year")
		if err != nil {
			http.Error(w, "Failed to get revenue", http.StatusInternalServerError)
			return
		}

		response := struct {
			Revenue struct {
				Week  int64 `json:"week"`
				Month int64 `json:"month"`
				Year  int64 `json:"year"`
			} `json:"revenue_vnd"`
		}{}
		response.Revenue.Week = week
		response.Revenue.Month = month
		response.Revenue.Year = year

		writeJSON(w, http.StatusOK, response)
	}
}

type confirmRequest struct {
	Note string `json:"note"`
}

// confirmPaymentHandler settles a pending attempt on a manager's word (cash
// or bank transfer at the front desk). Replays of the same confirm are safe.
func confirmPaymentHandler(reconcileUC usecase.ReconcileUseCase, attemptID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		attempt, err := reconcileUC.ConfirmManual(r.Context(), attemptID, req.Note)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		case errors.Is(err, domain.ErrAttemptFinalized):
			http.Error(w, "Payment already settled", http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to confirm payment", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, attempt)
	}
}

// requeryPaymentHandler asks the provider for the server-side state of a
// transaction (supported by the bank gateway only). Read-only: it reports
// what the provider says and changes nothing locally.
func requeryPaymentHandler(paymentUC usecase.PaymentUseCase, querier adapter.TransactionQuerier, attemptID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if querier == nil {
			http.Error(w, "Provider re-query not configured", http.StatusNotImplemented)
			return
		}
		attempt, err := paymentUC.GetAttempt(r.Context(), attemptID)
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		} else if err != nil {
			http.Error(w, "Failed to load payment", http.StatusInternalServerError)
			return
		}

		txnDate := attempt.CreatedAt.Format("20060102150405")
		result, err := querier.QueryTransaction(r.Context(), attempt.OrderRef, txnDate)
		if err != nil {
			http.Error(w, "Provider query failed", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type packageCreateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DurationDays int    `json:"duration_days"`
	PTSessions   int    `json:"pt_sessions"`
	PriceVND     string `json:"price_vnd"`
}

func packagesCreateHandler(packageUC usecase.PackageUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req packageCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		price, err := decimal.NewFromString(req.PriceVND)
		if err != nil {
			http.Error(w, "Invalid price", http.StatusBadRequest)
			return
		}

		pkg, err := packageUC.Create(ctx, req.Name, req.Description, req.DurationDays, req.PTSessions, price)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create package", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, pkg)
	}
}

func packagesListHandler(packageUC usecase.PackageUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgs, err := packageUC.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list packages", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, pkgs)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
