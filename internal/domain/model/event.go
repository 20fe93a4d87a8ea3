package model

import "time"

type EventType string

const (
	EventPaymentSucceeded    EventType = "payment_succeeded"
	EventPaymentFailed       EventType = "payment_failed"
	EventTransferCreated     EventType = "transfer_created"
	EventPayoutCreated       EventType = "payout_created"
	EventPayoutFailed        EventType = "payout_failed"
	EventSubscriptionCreated EventType = "subscription_created"
	EventSubscriptionUpdated EventType = "subscription_updated"
	EventSubscriptionDeleted EventType = "subscription_deleted"
	EventInvoicePaid         EventType = "invoice_paid"
	EventAccountUpdated      EventType = "account_updated"
	EventUnknown             EventType = "unknown"
)

// Event is one verified notification from the payment processor, decoded into
// a tagged union at the boundary: exactly one payload pointer matching Type is
// non-nil. Events are never mutated after decoding.
type Event struct {
	ID         string
	Type       EventType
	ReceivedAt time.Time

	Payment      *PaymentEventData
	Transfer     *TransferEventData
	Payout       *PayoutEventData
	Subscription *SubscriptionEventData
	Invoice      *InvoiceEventData
	Account      *AccountEventData
}

// PaymentEventData carries the fields of a payment_intent.* notification that
// settlement acts on. ProcessorRef is the payment intent id and correlates the
// event with the local Payment record.
type PaymentEventData struct {
	ProcessorRef  string
	AmountCents   int64
	Currency      string
	FailureReason string
}

type TransferEventData struct {
	TransferID    string
	AmountCents   int64
	Destination   string
	TransferGroup string
}

type PayoutEventData struct {
	PayoutID      string
	AmountCents   int64
	FailureReason string
}

type SubscriptionEventData struct {
	SubscriptionID     string
	CustomerID         string
	MerchantID         string
	Status             string
	PriceID            string
	AmountCents        int64
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

type InvoiceEventData struct {
	InvoiceID      string
	SubscriptionID string
	AmountCents    int64
	PeriodEnd      time.Time
}

type AccountEventData struct {
	AccountID      string
	ChargesEnabled bool
	PayoutsEnabled bool
}
