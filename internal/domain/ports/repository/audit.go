package repository

import (
	"context"

	"laundry-settlement/internal/domain/model"
)

// AuditSink is the append-only settlement log. There is deliberately no
// update or delete.
type AuditSink interface {
	Append(ctx context.Context, tx Tx, e *model.AuditEntry) error
	ListByEntity(ctx context.Context, tx Tx, entityType, entityID string, limit int) ([]*model.AuditEntry, error)
}
