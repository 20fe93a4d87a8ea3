package model

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
	OrderStatusPickedUp       OrderStatus = "PICKED_UP"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// Order is the slice of the order aggregate settlement needs: who gets paid
// and how much of the total is the delivery fee. The full order domain lives
// with the ordering service; this subsystem only drives the payment-related
// status transitions.
type Order struct {
	ID               string
	OrderNumber      string
	MerchantID       string
	DriverID         *string // nil until a driver is assigned
	Status           OrderStatus
	TotalCents       int64
	DeliveryFeeCents int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
