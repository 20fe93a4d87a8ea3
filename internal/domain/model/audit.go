package model

import "time"

// AuditEntry is one append-only record of a settlement-affecting action.
// Entries are written for events actually acted upon (plus notable omissions
// such as skipped transfers), never updated or deleted, and exist for
// reconciliation and forensics rather than for driving behavior.
type AuditEntry struct {
	ID         string // UUID
	Action     string // e.g. "payment.completed", "transfer.skipped"
	EntityType string // "payment", "order", "subscription", "transfer", "payout"
	EntityID   string
	Details    map[string]interface{} // serialized as JSONB
	OccurredAt time.Time
}
