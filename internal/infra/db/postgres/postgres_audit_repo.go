package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"
)

var _ repository.AuditSink = (*auditRepo)(nil)

// auditRepo appends to the settlement_audit table. There is no UPDATE or
// DELETE statement in this file on purpose.
type auditRepo struct{ pool *pgxpool.Pool }

func NewAuditRepo(pool *pgxpool.Pool) *auditRepo {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Append(ctx context.Context, tx repository.Tx, e *model.AuditEntry) error {
	const q = `
INSERT INTO settlement_audit (id, action, entity_type, entity_id, details, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Action, e.EntityType, e.EntityID, e.Details, e.OccurredAt)
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

func (r *auditRepo) ListByEntity(ctx context.Context, tx repository.Tx, entityType, entityID string, limit int) ([]*model.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, action, entity_type, entity_id, details, occurred_at
  FROM settlement_audit
 WHERE entity_type=$1 AND entity_id=$2
 ORDER BY occurred_at ASC
 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, entityType, entityID, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.AuditEntry
	for rows.Next() {
		e := &model.AuditEntry{}
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.OccurredAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, nil
}
