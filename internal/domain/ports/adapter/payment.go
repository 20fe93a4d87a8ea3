package adapter

import (
	"context"

	"laundry-settlement/internal/domain/model"
)

// IntentStatus is the provider-agnostic outcome of a payment intent lookup.
type IntentStatus string

const (
	IntentStatusSucceeded IntentStatus = "succeeded"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusPending   IntentStatus = "pending"
)

// TransferRequest describes one movement of funds from the platform balance
// to a connected account. TransferGroup groups the multi-party payouts of a
// single order for processor-side reconciliation.
type TransferRequest struct {
	AmountCents   int64
	Currency      string
	Destination   string // connected account id
	TransferGroup string // e.g. ORDER_<id> or DELIVERY_<id>
	Metadata      map[string]string
}

// ProcessorClient is the hex port for the payment processor. The concrete
// client is constructed at startup and injected; there is no ambient global
// processor state.
type ProcessorClient interface {
	Name() string

	// CreateTransfer moves funds to a connected account and returns the
	// processor transfer id. Blocking I/O; callers must not hold a database
	// transaction open across it.
	CreateTransfer(ctx context.Context, req TransferRequest) (transferID string, err error)

	// AccountChargesEnabled reports the current onboarding status of a
	// connected account.
	AccountChargesEnabled(ctx context.Context, accountID string) (bool, error)

	// PaymentIntentStatus fetches the processor-side outcome of a payment
	// intent, used by the stale-payment sweep when the webhook raced the
	// local record.
	PaymentIntentStatus(ctx context.Context, ref string) (IntentStatus, error)
}

// EventVerifier authenticates a raw webhook body against its signature header
// and decodes it into a typed event. Pure validation plus parse; verification
// failures are terminal (the processor's redelivery policy owns retries).
type EventVerifier interface {
	Verify(rawBody []byte, signatureHeader string) (*model.Event, error)
}
