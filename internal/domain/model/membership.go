package model

import "time"

// MembershipRecord tracks how long a member may enter the gym. ExpiryDate only
// ever moves forward: a member can hold overlapping orders, so activation
// extends expiry to the later of its current value and the order end date,
// never shortens it.
type MembershipRecord struct {
	MemberID   string // UUID
	ExpiryDate time.Time
	Active     bool
	UpdatedAt  time.Time
}
