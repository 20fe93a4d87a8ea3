package repository

import (
	"context"
	"time"

	"laundry-settlement/internal/domain/model"
)

// SubscriptionRepository is the port for processor-mirrored subscriptions.
// Save upserts by the processor subscription id (natural key). Cancel is a
// soft termination: cancelled rows stay in place for the audit trail.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// UpdatePeriod refreshes status and billing period without touching the
	// plan fields resolved at creation.
	UpdatePeriod(ctx context.Context, tx Tx, id string, status model.SubscriptionStatus, periodStart, periodEnd time.Time) error
	Cancel(ctx context.Context, tx Tx, id string, cancelledAt time.Time) error
}
