package adapter

import (
	"context"

	"laundry-settlement/internal/domain/model"
)

// OrderAPI is the client-side port to the backend's order-creation endpoint.
// idempotencyKey is the client-generated order number; the backend accepts at
// most one order per key, which is the sole cross-device conflict-resolution
// mechanism.
type OrderAPI interface {
	CreateOrder(ctx context.Context, idempotencyKey string, d *model.DraftOrder) (orderID string, err error)
}
