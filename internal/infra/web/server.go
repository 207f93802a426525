package web

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/usecase"
)

// Server is the manager-facing API: login, revenue stats, the package
// catalog, manual payment confirmation and provider-side transaction
// re-query. It listens on its own port, away from the public surface.
type Server struct {
	statsUC     usecase.StatsUseCase
	reconcileUC usecase.ReconcileUseCase
	paymentUC   usecase.PaymentUseCase
	packageUC   usecase.PackageUseCase
	querier     adapter.TransactionQuerier
	auth        *AuthManager
	password    string
	log         *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	reconcileUC usecase.ReconcileUseCase,
	paymentUC usecase.PaymentUseCase,
	packageUC usecase.PackageUseCase,
	querier adapter.TransactionQuerier,
	auth *AuthManager,
	password string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:     statsUC,
		reconcileUC: reconcileUC,
		paymentUC:   paymentUC,
		packageUC:   packageUC,
		querier:     querier,
		auth:        auth,
		password:    password,
		log:         logger,
	}
}

// RegisterRoutes sets up the routing for the manager API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/login", s.handleLogin)
	mux.HandleFunc("/api/v1/logout", s.handleLogout)

	mux.Handle("/api/v1/stats", s.authMiddleware(statsHandler(s.statsUC)))

	paymentsRouter := s.authMiddleware(s.paymentsRouter())
	mux.Handle("/api/v1/payments/", paymentsRouter)

	packagesRouter := s.authMiddleware(s.packagesRouter())
	mux.Handle("/api/v1/packages", packagesRouter)
}

// authMiddleware requires a valid manager session (JWT bearer or cookie).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkPassword(given string) bool {
	if s.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(s.password)) == 1
}

// paymentsRouter handles /api/v1/payments/{id}/confirm and
// /api/v1/payments/{id}/requery.
func (s *Server) paymentsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/payments/")
		parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
		if len(parts) != 2 {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		id, action := parts[0], parts[1]
		switch action {
		case "confirm":
			confirmPaymentHandler(s.reconcileUC, id)(w, r)
		case "requery":
			requeryPaymentHandler(s.paymentUC, s.querier, id)(w, r)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})
}

func (s *Server) packagesRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			packagesListHandler(s.packageUC)(w, r)
		case http.MethodPost:
			packagesCreateHandler(s.packageUC)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
