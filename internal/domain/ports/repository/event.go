package repository

import (
	"context"
	"time"
)

// ProcessedEventRepository is the persisted dedup set behind the idempotency
// guard. MarkProcessed inserts the event id and returns
// domain.ErrAlreadyProcessed when the id is already present, relying on the
// table's primary key so redelivered events are recognized across process
// restarts. Callers run it inside the same transaction as the event's state
// transition.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, tx Tx, eventID, eventType string, receivedAt time.Time) error
	Seen(ctx context.Context, tx Tx, eventID string) (bool, error)
}
