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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, amount_gross, currency, processor_ref, status, processor_fee, platform_fee, merchant_payout, driver_payout, transfer_id, driver_transfer_id, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, amount_gross, currency, processor_ref, status, processor_fee, platform_fee, merchant_payout, driver_payout, transfer_id, driver_transfer_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  order_id=$2, amount_gross=$3, currency=$4, processor_ref=$5, status=$6, processor_fee=$7, platform_fee=$8, merchant_payout=$9, driver_payout=$10, transfer_id=$11, driver_transfer_id=$12, updated_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.OrderID, p.AmountGross, p.Currency, p.ProcessorRef, p.Status, p.ProcessorFee, p.PlatformFee, p.MerchantPayout, p.DriverPayout, p.TransferID, p.DriverTransferID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, id)
}

func (r *paymentRepo) FindByProcessorRef(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE processor_ref=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.scanOne(ctx, tx, q, ref)
}

func (r *paymentRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, split model.PayoutSplit, driverPayout int64) error {
	const q = `
UPDATE payments
   SET status=$2, processor_fee=$3, platform_fee=$4, merchant_payout=$5, driver_payout=$6, updated_at=NOW()
 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, model.PaymentStatusCompleted, split.ProcessorFee, split.PlatformFee, split.NetPayout, driverPayout)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, model.PaymentStatusFailed)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) SetTransferIDs(ctx context.Context, tx repository.Tx, id string, transferID, driverTransferID *string) error {
	const q = `
UPDATE payments
   SET transfer_id=COALESCE($2, transfer_id), driver_transfer_id=COALESCE($3, driver_transfer_id), updated_at=NOW()
 WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, transferID, driverTransferID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='PENDING' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p := &model.Payment{}
		if err := scanPayment(rows, p); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) scanOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{}
	if err := scanPayment(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func scanPayment(row pgx.Row, p *model.Payment) error {
	return row.Scan(&p.ID, &p.OrderID, &p.AmountGross, &p.Currency, &p.ProcessorRef, &p.Status, &p.ProcessorFee, &p.PlatformFee, &p.MerchantPayout, &p.DriverPayout, &p.TransferID, &p.DriverTransferID, &p.CreatedAt, &p.UpdatedAt)
}
