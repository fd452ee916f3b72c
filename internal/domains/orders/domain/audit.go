package domain

import "time"

// AuditTableOrders is the audited table name for order status changes.
const AuditTableOrders = "orders"

// AuditEntry is an append-only record of a state change.
type AuditEntry struct {
	ID        int64
	Actor     string
	Table     string
	RecordID  int64
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}

// NewStatusAudit records an order status change made by actor.
func NewStatusAudit(actor string, orderID int64, from, to Status, at time.Time) AuditEntry {
	return AuditEntry{
		Actor:     actor,
		Table:     AuditTableOrders,
		RecordID:  orderID,
		OldValue:  string(from),
		NewValue:  string(to),
		CreatedAt: at,
	}
}
