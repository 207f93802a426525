package model

import "time"

type NotificationKind string

const (
	NotificationPaymentConfirmed NotificationKind = "payment_confirmation"
	NotificationPaymentFailed    NotificationKind = "payment_failed"
	NotificationOrderExpired     NotificationKind = "order_expired"
)

// NotificationRecord is the audit row behind the notification dispatch port.
type NotificationRecord struct {
	ID        string // UUID
	MemberID  string
	Title     string
	Message   string
	Kind      NotificationKind
	CreatedAt time.Time
}
