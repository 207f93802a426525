//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gym-membership-backend/internal/domain"
	"gym-membership-backend/internal/domain/model"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
)

// ---- Mock PaymentAttemptRepository ----

type MockAttemptRepo struct {
	mu    sync.Mutex
	data  map[string]*model.PaymentAttempt // by id
	byRef map[string]string                // order_ref -> id

	CreateFunc               func(ctx context.Context, tx repository.Tx, p *model.PaymentAttempt) error
	FindByOrderRefFunc       func(ctx context.Context, tx repository.Tx, ref string) (*model.PaymentAttempt, error)
	SettleIfPendingFunc      func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, ref *string, at *time.Time) (bool, error)
	SumCompletedByPeriodFunc func(ctx context.Context, tx repository.Tx, period string) (int64, error)
}

var _ repository.PaymentAttemptRepository = (*MockAttemptRepo)(nil)

func NewMockAttemptRepo() *MockAttemptRepo {
	return &MockAttemptRepo{data: map[string]*model.PaymentAttempt{}, byRef: map[string]string{}}
}

func (r *MockAttemptRepo) Create(ctx context.Context, tx repository.Tx, p *model.PaymentAttempt) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.data[p.ID] = &cp
	if p.OrderRef != "" {
		r.byRef[p.OrderRef] = p.ID
	}
	return nil
}

func (r *MockAttemptRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAttemptRepo) FindByOrderRef(ctx context.Context, tx repository.Tx, ref string) (*model.PaymentAttempt, error) {
	if r.FindByOrderRefFunc != nil {
		return r.FindByOrderRefFunc(ctx, tx, ref)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byRef[ref]; ok {
		cp := *r.data[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAttemptRepo) SettleIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, ref *string, at *time.Time) (bool, error) {
	if r.SettleIfPendingFunc != nil {
		return r.SettleIfPendingFunc(ctx, tx, id, status, ref, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if ref != nil {
		p.ProviderTxnRef = ref
	}
	if at != nil {
		p.ConfirmedAt = at
	}
	return true, nil
}

func (r *MockAttemptRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentAttempt
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MockAttemptRepo) SumCompletedByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	if r.SumCompletedByPeriodFunc != nil {
		return r.SumCompletedByPeriodFunc(ctx, tx, period)
	}
	return 0, nil
}

// get returns the stored attempt without copying, for assertions.
func (r *MockAttemptRepo) get(id string) *model.PaymentAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[id]
}

// ---- Mock SubscriptionOrderRepository ----

type MockOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.SubscriptionOrder

	FindByIDFunc          func(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionOrder, error)
	ActivateIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, endDate time.Time) (bool, error)
}

var _ repository.SubscriptionOrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.SubscriptionOrder{}}
}

func (r *MockOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.SubscriptionOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.data[o.ID] = &cp
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionOrder, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.data[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.SubscriptionOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SubscriptionOrder
	for _, o := range r.data {
		if o.MemberID == memberID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockOrderRepo) ActivateIfPending(ctx context.Context, tx repository.Tx, id string, endDate time.Time) (bool, error) {
	if r.ActivateIfPendingFunc != nil {
		return r.ActivateIfPendingFunc(ctx, tx, id, endDate)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusActive
	o.EndDate = endDate
	return true, nil
}

func (r *MockOrderRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.data {
		if o.Status == model.OrderStatusActive && o.EndDate.Before(now) {
			o.Status = model.OrderStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *MockOrderRepo) get(id string) *model.SubscriptionOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[id]
}

// ---- Mock MembershipRepository ----

type MockMembershipRepo struct {
	mu   sync.Mutex
	data map[string]*model.MembershipRecord

	ExtendExpiryFunc func(ctx context.Context, tx repository.Tx, memberID string, newExpiry time.Time) error
	extendCalls      int
}

var _ repository.MembershipRepository = (*MockMembershipRepo)(nil)

func NewMockMembershipRepo() *MockMembershipRepo {
	return &MockMembershipRepo{data: map[string]*model.MembershipRecord{}}
}

func (r *MockMembershipRepo) Find(ctx context.Context, tx repository.Tx, memberID string) (*model.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.data[memberID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockMembershipRepo) ExtendExpiry(ctx context.Context, tx repository.Tx, memberID string, newExpiry time.Time) error {
	if r.ExtendExpiryFunc != nil {
		return r.ExtendExpiryFunc(ctx, tx, memberID, newExpiry)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extendCalls++
	m, ok := r.data[memberID]
	if !ok {
		r.data[memberID] = &model.MembershipRecord{MemberID: memberID, ExpiryDate: newExpiry, Active: true, UpdatedAt: time.Now()}
		return nil
	}
	if newExpiry.After(m.ExpiryDate) {
		m.ExpiryDate = newExpiry
	}
	m.Active = true
	m.UpdatedAt = time.Now()
	return nil
}

func (r *MockMembershipRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extendCalls
}

// ---- Mock GymPackageRepository ----

type MockPackageRepo struct {
	mu   sync.Mutex
	data map[string]*model.GymPackage
}

var _ repository.GymPackageRepository = (*MockPackageRepo)(nil)

func NewMockPackageRepo() *MockPackageRepo {
	return &MockPackageRepo{data: map[string]*model.GymPackage{}}
}

func (r *MockPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.GymPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GymPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPackageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GymPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.GymPackage, 0, len(r.data))
	for _, p := range r.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock NotificationLogRepository ----

type MockNotificationLogRepo struct {
	mu   sync.Mutex
	recs []*model.NotificationRecord
}

var _ repository.NotificationLogRepository = (*MockNotificationLogRepo)(nil)

func NewMockNotificationLogRepo() *MockNotificationLogRepo {
	return &MockNotificationLogRepo{}
}

func (r *MockNotificationLogRepo) Save(ctx context.Context, tx repository.Tx, n *model.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.recs = append(r.recs, &cp)
	return nil
}

func (r *MockNotificationLogRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID string, limit int) ([]*model.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.NotificationRecord
	for _, n := range r.recs {
		if n.MemberID == memberID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock PaymentGateway ----

type MockGateway struct {
	Provider model.PaymentProvider

	CreatePaymentRequestFunc func(ctx context.Context, orderRef string, amount decimal.Decimal, orderInfo, clientIP string) (string, error)
	ParseCallbackFunc        func(params map[string]string) model.CallbackResult
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (g *MockGateway) Name() model.PaymentProvider { return g.Provider }

func (g *MockGateway) CreatePaymentRequest(ctx context.Context, orderRef string, amount decimal.Decimal, orderInfo, clientIP string) (string, error) {
	if g.CreatePaymentRequestFunc != nil {
		return g.CreatePaymentRequestFunc(ctx, orderRef, amount, orderInfo, clientIP)
	}
	return "https://pay.example/" + orderRef, nil
}

func (g *MockGateway) ParseCallback(params map[string]string) model.CallbackResult {
	if g.ParseCallbackFunc != nil {
		return g.ParseCallbackFunc(params)
	}
	return model.CallbackResult{}
}

func (g *MockGateway) Ack(outcome model.CallbackOutcome) adapter.ProviderAck {
	return adapter.ProviderAck{HTTPStatus: 200, ContentType: "application/json", Body: string(outcome)}
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu    sync.Mutex
	sent  []model.NotificationKind
	Err   error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (n *MockNotifier) Notify(ctx context.Context, memberID, title, message string, kind model.NotificationKind) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
	return nil
}

func (n *MockNotifier) kinds() []model.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.NotificationKind(nil), n.sent...)
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately with NoTX by default. Tests that need
// to verify transactional behavior assign WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock RateLimiter ----

type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

var errBoom = errors.New("boom")

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
