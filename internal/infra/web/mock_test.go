//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
)

// --- Mock use cases for handler tests ---

type mockStatsUC struct {
	RevenueError error
}

func (m *mockStatsUC) Revenue(ctx context.Context, period string) (int64, error) {
	if m.RevenueError != nil {
		return 0, m.RevenueError
	}
	switch period {
	case "week":
		return 450000, nil
	case "month":
		return 1800000, nil
	case "year":
		return 21600000, nil
	}
	return 0, domain.ErrInvalidArgument
}

type mockReconcileUC struct {
	mu           sync.Mutex
	confirmed    []string
	ConfirmError error
}

func (m *mockReconcileUC) HandleCallback(ctx context.Context, provider model.PaymentProvider, channel model.CallbackChannel, params map[string]string) model.CallbackDecision {
	return model.CallbackDecision{Outcome: model.OutcomeAcknowledged}
}

func (m *mockReconcileUC) ConfirmManual(ctx context.Context, attemptID, managerNote string) (*model.PaymentAttempt, error) {
	if m.ConfirmError != nil {
		return nil, m.ConfirmError
	}
	m.mu.Lock()
	m.confirmed = append(m.confirmed, attemptID)
	m.mu.Unlock()
	return &model.PaymentAttempt{
		ID:     attemptID,
		Status: model.PaymentStatusCompleted,
	}, nil
}

func (m *mockReconcileUC) ExpireStaleAttempts(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	return 0, nil
}

type mockPaymentUC struct {
	attempt  *model.PaymentAttempt
	GetError error
}

func (m *mockPaymentUC) Initiate(ctx context.Context, orderID string, provider model.PaymentProvider, clientIP string) (*model.PaymentAttempt, string, error) {
	return nil, "", domain.ErrOperationFailed
}

func (m *mockPaymentUC) GetAttempt(ctx context.Context, attemptID string) (*model.PaymentAttempt, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	if m.attempt == nil || m.attempt.ID != attemptID {
		return nil, domain.ErrNotFound
	}
	return m.attempt, nil
}

type mockPackageUC struct {
	mu        sync.Mutex
	packages  []*model.GymPackage
	ListError error
}

func (m *mockPackageUC) Create(ctx context.Context, name, description string, durationDays, ptSessions int, price decimal.Decimal) (*model.GymPackage, error) {
	pkg, err := model.NewGymPackage("pkg-new", name, description, durationDays, ptSessions, price)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.packages = append(m.packages, pkg)
	m.mu.Unlock()
	return pkg, nil
}

func (m *mockPackageUC) List(ctx context.Context) ([]*model.GymPackage, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.packages, nil
}

type mockQuerier struct {
	gotRef   string
	gotDate  string
	result   map[string]any
	QueryErr error
}

func (m *mockQuerier) QueryTransaction(ctx context.Context, orderRef string, txnDate string) (map[string]any, error) {
	m.gotRef = orderRef
	m.gotDate = txnDate
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.result, nil
}
