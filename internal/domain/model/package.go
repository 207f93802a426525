package model

import (
	"time"

	"gym-membership-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// GymPackage is a purchasable training package with a fixed duration, a PT
// session allotment, and a price in VND.
type GymPackage struct {
	ID           string
	Name         string
	Description  string
	DurationDays int
	PTSessions   int
	Price        decimal.Decimal
	CreatedAt    time.Time
}

func (p *GymPackage) IsZero() bool { return p == nil || p.ID == "" }

// NewGymPackage validates and constructs a package.
func NewGymPackage(id, name, description string, durationDays, ptSessions int, price decimal.Decimal) (*GymPackage, error) {
	if id == "" || name == "" || durationDays <= 0 || ptSessions < 0 || !price.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	return &GymPackage{
		ID:           id,
		Name:         name,
		Description:  description,
		DurationDays: durationDays,
		PTSessions:   ptSessions,
		Price:        price,
		CreatedAt:    time.Now(),
	}, nil
}
