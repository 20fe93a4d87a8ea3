package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres); repositories accept nil for the non-transactional
// path.
type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the handle through so the dedup mark and the state transition of a
// webhook event commit (or roll back) as one atomic unit. Use-case interfaces
// stay free of storage types; repositories detect the tx implementation-side.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
