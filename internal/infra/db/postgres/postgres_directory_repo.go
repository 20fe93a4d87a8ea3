package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/ports/repository"
)

var _ repository.DirectoryRepository = (*directoryRepo)(nil)

// directoryRepo maps merchants and drivers to connected accounts via a single
// connected_accounts table keyed by (entity_type, entity_id).
type directoryRepo struct{ pool *pgxpool.Pool }

func NewDirectoryRepo(pool *pgxpool.Pool) *directoryRepo {
	return &directoryRepo{pool: pool}
}

func (r *directoryRepo) MerchantAccount(ctx context.Context, tx repository.Tx, merchantID string) (*repository.ConnectedAccount, error) {
	return r.lookup(ctx, tx, "merchant", merchantID)
}

func (r *directoryRepo) DriverAccount(ctx context.Context, tx repository.Tx, driverID string) (*repository.ConnectedAccount, error) {
	return r.lookup(ctx, tx, "driver", driverID)
}

func (r *directoryRepo) lookup(ctx context.Context, tx repository.Tx, entityType, entityID string) (*repository.ConnectedAccount, error) {
	const q = `SELECT account_id, charges_enabled FROM connected_accounts WHERE entity_type=$1 AND entity_id=$2 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, entityType, entityID)
	if err != nil {
		return nil, err
	}

	acct := &repository.ConnectedAccount{}
	if err := row.Scan(&acct.AccountID, &acct.ChargesEnabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return acct, nil
}

func (r *directoryRepo) SetChargesEnabled(ctx context.Context, tx repository.Tx, accountID string, enabled bool) error {
	const q = `UPDATE connected_accounts SET charges_enabled=$2 WHERE account_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, accountID, enabled)
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
