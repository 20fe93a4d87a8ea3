package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/ports/repository"
)

var _ repository.ProcessedEventRepository = (*processedEventRepo)(nil)

// processedEventRepo is the persisted dedup set. The primary key on event id
// is the actual guard: a redelivered event trips the unique violation and is
// reported as domain.ErrAlreadyProcessed, which also aborts the surrounding
// transaction before any handler side effect can commit twice.
type processedEventRepo struct{ pool *pgxpool.Pool }

func NewProcessedEventRepo(pool *pgxpool.Pool) *processedEventRepo {
	return &processedEventRepo{pool: pool}
}

func (r *processedEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID, eventType string, receivedAt time.Time) error {
	const q = `INSERT INTO processed_events (id, event_type, received_at) VALUES ($1, $2, $3);`
	_, err := execSQL(ctx, r.pool, tx, q, eventID, eventType, receivedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyProcessed
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *processedEventRepo) Seen(ctx context.Context, tx repository.Tx, eventID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM processed_events WHERE id=$1);`
	row, err := pickRow(ctx, r.pool, tx, q, eventID)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
