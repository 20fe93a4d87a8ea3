package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, customer_id, merchant_id, status, current_period_start, current_period_end, amount_cents, plan_type, free_lbs_included, excess_rate_cents, cancelled_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	// Upsert on the processor subscription id: a redelivered created event
	// lands on the same row instead of duplicating it.
	const q = `
INSERT INTO subscriptions (
  id, customer_id, merchant_id, status, current_period_start, current_period_end, amount_cents, plan_type, free_lbs_included, excess_rate_cents, cancelled_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  customer_id=$2, merchant_id=$3, status=$4, current_period_start=$5, current_period_end=$6, amount_cents=$7, cancelled_at=$11, updated_at=$13;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.CustomerID, s.MerchantID, s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.AmountCents, s.PlanType, s.FreeLbsIncluded, s.ExcessRateCents, s.CancelledAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.CustomerID, &s.MerchantID, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.AmountCents, &s.PlanType, &s.FreeLbsIncluded, &s.ExcessRateCents, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *subscriptionRepo) UpdatePeriod(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus, periodStart, periodEnd time.Time) error {
	const q = `
UPDATE subscriptions
   SET status=$2, current_period_start=$3, current_period_end=$4, updated_at=NOW()
 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, status, periodStart, periodEnd)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) Cancel(ctx context.Context, tx repository.Tx, id string, cancelledAt time.Time) error {
	// Soft cancel only; subscription rows are never deleted.
	const q = `
UPDATE subscriptions
   SET status=$2, cancelled_at=$3, updated_at=NOW()
 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, model.SubscriptionStatusCancelled, cancelledAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
