package repository

import (
	"context"
	"time"

	"laundry-settlement/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByProcessorRef looks a payment up by the processor's payment intent
	// id, the correlation key webhook events carry.
	FindByProcessorRef(ctx context.Context, tx Tx, ref string) (*model.Payment, error)
	// MarkCompleted sets the terminal COMPLETED status together with the
	// computed fee split.
	MarkCompleted(ctx context.Context, tx Tx, id string, split model.PayoutSplit, driverPayout int64) error
	MarkFailed(ctx context.Context, tx Tx, id string) error
	// SetTransferIDs records emitted transfer ids in a follow-up write, after
	// the settlement transaction has committed.
	SetTransferIDs(ctx context.Context, tx Tx, id string, transferID, driverTransferID *string) error
	// ListPendingOlderThan feeds the stale-payment sweep.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
