package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"   // charge created locally; awaiting processor outcome
	PaymentStatusCompleted PaymentStatus = "COMPLETED" // processor reported success (terminal)
	PaymentStatusFailed    PaymentStatus = "FAILED"    // processor reported failure (terminal)
)

// Payment records one attempt to charge a customer for an Order. Fee and
// payout fields stay nil until the split is computed on completion; transfer
// ids stay nil until the corresponding transfer has been emitted.
type Payment struct {
	ID           string // UUID
	OrderID      string
	AmountGross  int64 // minor units (cents)
	Currency     string
	ProcessorRef string // processor payment intent id, the external correlation key
	Status       PaymentStatus

	ProcessorFee   *int64
	PlatformFee    *int64
	MerchantPayout *int64
	DriverPayout   *int64

	TransferID       *string // merchant transfer, set after emission
	DriverTransferID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the payment has reached a final state. Terminal
// payments never transition again; a redelivered or conflicting event is a
// no-op.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
