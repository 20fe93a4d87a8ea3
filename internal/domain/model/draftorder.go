package model

import "time"

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending" // saved locally, not yet sent
	SyncStatusSyncing SyncStatus = "syncing" // a drain pass is sending it
	SyncStatusSynced  SyncStatus = "synced"  // backend confirmed; eligible for purge
	SyncStatusError   SyncStatus = "error"   // last attempt failed; retried next pass
)

// CustomerInfo is the contact block captured with an offline draft.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DraftItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// DraftOrder is an order captured on the client while offline, not yet
// accepted by the backend. OrderNumber is client-generated and doubles as the
// idempotency key on the order-creation call, so a retried sync after a
// timed-out-but-successful attempt cannot create a duplicate order. At most
// one draft exists per OrderNumber (saves upsert).
type DraftOrder struct {
	LocalSeq    int64        `json:"local_seq"` // local auto-increment, assigned on first save
	OrderNumber string       `json:"order_number"`
	Customer    CustomerInfo `json:"customer"`
	Items       []DraftItem  `json:"items"`

	SubtotalCents    int64 `json:"subtotal_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	TotalCents       int64 `json:"total_cents"`

	SyncStatus SyncStatus `json:"sync_status"`
	SyncError  string     `json:"sync_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecalcTotals recomputes the derived money fields from the items.
func (d *DraftOrder) RecalcTotals() {
	var subtotal int64
	for _, it := range d.Items {
		subtotal += int64(it.Quantity) * it.UnitPriceCents
	}
	d.SubtotalCents = subtotal
	d.TotalCents = subtotal + d.DeliveryFeeCents
}
