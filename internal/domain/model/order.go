package model

import (
	"time"

	"gym-membership-backend/internal/domain"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// SubscriptionOrder is one purchase of a gym package by a member. The
// reconciliation core's only write access is activation on successful payment.
type SubscriptionOrder struct {
	ID                  string // UUID
	MemberID            string // UUID
	PackageID           string // UUID
	StartDate           time.Time
	EndDate             time.Time
	RemainingPTSessions int
	Status              OrderStatus
	Price               decimal.Decimal // major VND units, what the member owes
	CreatedAt           time.Time
}

// NewSubscriptionOrder creates a pending order for a package, copying the PT
// session allotment and deriving the date range from the package duration.
func NewSubscriptionOrder(id, memberID string, pkg *GymPackage, startDate time.Time) (*SubscriptionOrder, error) {
	if id == "" || memberID == "" || pkg == nil {
		return nil, domain.ErrInvalidArgument
	}
	return &SubscriptionOrder{
		ID:                  id,
		MemberID:            memberID,
		PackageID:           pkg.ID,
		StartDate:           startDate,
		EndDate:             startDate.AddDate(0, 0, pkg.DurationDays),
		RemainingPTSessions: pkg.PTSessions,
		Status:              OrderStatusPending,
		Price:               pkg.Price,
		CreatedAt:           time.Now(),
	}, nil
}

// Payable reports whether a payment URL may still be requested for the order.
func (o *SubscriptionOrder) Payable() bool { return o.Status == OrderStatusPending }
