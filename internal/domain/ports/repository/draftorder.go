package repository

import (
	"context"

	"laundry-settlement/internal/domain/model"
)

// DraftStore is the client-local durable store for offline drafts. Upsert
// keys on OrderNumber (at most one draft per order number); UpdateSyncStatus
// drives the pending -> syncing -> synced | error machine; PurgeSynced
// removes drafts the backend has confirmed.
type DraftStore interface {
	Upsert(ctx context.Context, d *model.DraftOrder) error
	Get(ctx context.Context, orderNumber string) (*model.DraftOrder, error)
	ListByStatus(ctx context.Context, status model.SyncStatus) ([]*model.DraftOrder, error)
	UpdateSyncStatus(ctx context.Context, orderNumber string, status model.SyncStatus, syncErr string) error
	Delete(ctx context.Context, orderNumber string) error
	PurgeSynced(ctx context.Context) (int, error)
}
