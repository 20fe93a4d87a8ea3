package model

import (
	"strings"
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusTrialing  SubscriptionStatus = "TRIALING"
	SubscriptionStatusUnpaid    SubscriptionStatus = "UNPAID"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
)

// Subscription mirrors a recurring billing agreement at the processor. The
// processor's subscription id is the primary key (natural key, not a
// surrogate). Records are soft-cancelled, never hard-deleted, to keep the
// billing trail intact.
type Subscription struct {
	ID                 string // processor subscription id
	CustomerID         string
	MerchantID         string
	Status             SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	AmountCents        int64

	// Plan fields, resolved once at creation from the price id. Updates never
	// re-resolve them: a subscription does not change price without being
	// replaced by a new one.
	PlanType        string
	FreeLbsIncluded int
	ExcessRateCents int64

	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MirrorStatus maps the processor's reported status string onto the local
// enum verbatim, uppercased. Unknown statuses pass through so a new processor
// state is visible rather than swallowed.
func MirrorStatus(processorStatus string) SubscriptionStatus {
	return SubscriptionStatus(strings.ToUpper(strings.TrimSpace(processorStatus)))
}

// Plan describes the service tier attached to a processor price id.
type Plan struct {
	Type            string
	FreeLbsIncluded int
	ExcessRateCents int64
}

// planByPrice is the static price-id -> plan lookup. Plan metadata is not
// critical to billing correctness, so an unknown price falls back to the
// basic plan instead of failing the event.
var planByPrice = map[string]Plan{
	"price_basic_monthly":   {Type: "basic", FreeLbsIncluded: 20, ExcessRateCents: 199},
	"price_family_monthly":  {Type: "family", FreeLbsIncluded: 60, ExcessRateCents: 169},
	"price_premium_monthly": {Type: "premium", FreeLbsIncluded: 120, ExcessRateCents: 139},
}

var defaultPlan = Plan{Type: "basic", FreeLbsIncluded: 20, ExcessRateCents: 199}

// PlanForPrice resolves a processor price id to its plan, falling back to the
// default basic plan for prices the table does not know.
func PlanForPrice(priceID string) Plan {
	if p, ok := planByPrice[priceID]; ok {
		return p
	}
	return defaultPlan
}
