package repository

import "context"

// ConnectedAccount is a merchant's or driver's sub-account at the payment
// processor, capable of receiving transfers.
type ConnectedAccount struct {
	AccountID      string
	ChargesEnabled bool
}

// DirectoryRepository resolves merchants and drivers to their connected
// accounts. A missing account (not yet onboarded) is reported via
// domain.ErrNotFound; callers treat it as "skip the transfer", not a failure.
type DirectoryRepository interface {
	MerchantAccount(ctx context.Context, tx Tx, merchantID string) (*ConnectedAccount, error)
	DriverAccount(ctx context.Context, tx Tx, driverID string) (*ConnectedAccount, error)
	// SetChargesEnabled reflects account.updated events so skip decisions
	// track onboarding state.
	SetChargesEnabled(ctx context.Context, tx Tx, accountID string, enabled bool) error
}
