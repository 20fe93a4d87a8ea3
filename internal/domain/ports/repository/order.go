package repository

import (
	"context"

	"laundry-settlement/internal/domain/model"
)

// OrderRepository covers the narrow slice of the order aggregate settlement
// touches. The order service owns everything else.
type OrderRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.OrderStatus) error
}
