package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/adapter"
)

// Ensure compile-time conformance
var _ adapter.EventVerifier = (*StripeVerifier)(nil)

// StripeVerifier recomputes the signature over the raw body with the shared
// webhook secret (timing-safe comparison inside ConstructEvent) and decodes
// the event into the typed union exactly once, at this boundary. Everything
// past here works with model.Event, never with raw payload maps.
type StripeVerifier struct {
	webhookSecret string
}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{webhookSecret: webhookSecret}
}

func (v *StripeVerifier) Verify(rawBody []byte, signatureHeader string) (*model.Event, error) {
	if signatureHeader == "" || v.webhookSecret == "" {
		return nil, domain.ErrVerificationFailed
	}
	ev, err := stripe.ConstructEvent(rawBody, signatureHeader, v.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err)
	}
	return DecodeEvent(&ev)
}

// DecodeEvent maps a verified Stripe event onto the domain's tagged union.
// Unknown event types come back as EventUnknown and are acknowledged upstream
// without processing.
func DecodeEvent(ev *stripe.Event) (*model.Event, error) {
	out := &model.Event{
		ID:         ev.ID,
		ReceivedAt: time.Now(),
	}

	switch string(ev.Type) {
	case "payment_intent.succeeded":
		out.Type = model.EventPaymentSucceeded
		d, err := decodePaymentIntent(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Payment = d
	case "payment_intent.payment_failed":
		out.Type = model.EventPaymentFailed
		d, err := decodePaymentIntent(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Payment = d
	case "transfer.created":
		out.Type = model.EventTransferCreated
		d, err := decodeTransfer(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Transfer = d
	case "payout.created", "payout.failed":
		if string(ev.Type) == "payout.created" {
			out.Type = model.EventPayoutCreated
		} else {
			out.Type = model.EventPayoutFailed
		}
		d, err := decodePayout(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Payout = d
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		switch string(ev.Type) {
		case "customer.subscription.created":
			out.Type = model.EventSubscriptionCreated
		case "customer.subscription.updated":
			out.Type = model.EventSubscriptionUpdated
		default:
			out.Type = model.EventSubscriptionDeleted
		}
		d, err := decodeSubscription(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Subscription = d
	case "invoice.paid":
		out.Type = model.EventInvoicePaid
		d, err := decodeInvoice(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Invoice = d
	case "account.updated":
		out.Type = model.EventAccountUpdated
		d, err := decodeAccount(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Account = d
	default:
		out.Type = model.EventUnknown
	}

	return out, nil
}

// The raw structs below decode only the fields settlement needs, straight
// from the event JSON. Expanded-object references (customer, subscription,
// destination) can arrive either as an id string or as a full object, so
// they go through objRef.

type objRef string

func (r *objRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = objRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = objRef(obj.ID)
	return nil
}

func decodePaymentIntent(raw json.RawMessage) (*model.PaymentEventData, error) {
	var pi struct {
		ID               string `json:"id"`
		Amount           int64  `json:"amount"`
		Currency         string `json:"currency"`
		LastPaymentError *struct {
			Message string `json:"message"`
		} `json:"last_payment_error"`
	}
	if err := json.Unmarshal(raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment_intent: %w", err)
	}
	d := &model.PaymentEventData{
		ProcessorRef: pi.ID,
		AmountCents:  pi.Amount,
		Currency:     pi.Currency,
	}
	if pi.LastPaymentError != nil {
		d.FailureReason = pi.LastPaymentError.Message
	}
	return d, nil
}

func decodeTransfer(raw json.RawMessage) (*model.TransferEventData, error) {
	var t struct {
		ID            string `json:"id"`
		Amount        int64  `json:"amount"`
		Destination   objRef `json:"destination"`
		TransferGroup string `json:"transfer_group"`
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode transfer: %w", err)
	}
	return &model.TransferEventData{
		TransferID:    t.ID,
		AmountCents:   t.Amount,
		Destination:   string(t.Destination),
		TransferGroup: t.TransferGroup,
	}, nil
}

func decodePayout(raw json.RawMessage) (*model.PayoutEventData, error) {
	var p struct {
		ID             string `json:"id"`
		Amount         int64  `json:"amount"`
		FailureMessage string `json:"failure_message"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payout: %w", err)
	}
	return &model.PayoutEventData{
		PayoutID:      p.ID,
		AmountCents:   p.Amount,
		FailureReason: p.FailureMessage,
	}, nil
}

func decodeSubscription(raw json.RawMessage) (*model.SubscriptionEventData, error) {
	var s struct {
		ID                 string            `json:"id"`
		Customer           objRef            `json:"customer"`
		Status             string            `json:"status"`
		CurrentPeriodStart int64             `json:"current_period_start"`
		CurrentPeriodEnd   int64             `json:"current_period_end"`
		Metadata           map[string]string `json:"metadata"`
		Items              struct {
			Data []struct {
				Price struct {
					ID         string `json:"id"`
					UnitAmount int64  `json:"unit_amount"`
				} `json:"price"`
				CurrentPeriodStart int64 `json:"current_period_start"`
				CurrentPeriodEnd   int64 `json:"current_period_end"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}

	d := &model.SubscriptionEventData{
		SubscriptionID: s.ID,
		CustomerID:     string(s.Customer),
		MerchantID:     s.Metadata["merchant_id"],
		Status:         s.Status,
	}
	start, end := s.CurrentPeriodStart, s.CurrentPeriodEnd
	if len(s.Items.Data) > 0 {
		it := s.Items.Data[0]
		d.PriceID = it.Price.ID
		d.AmountCents = it.Price.UnitAmount
		// Newer API versions report the billing period on the item.
		if start == 0 {
			start = it.CurrentPeriodStart
		}
		if end == 0 {
			end = it.CurrentPeriodEnd
		}
	}
	if start > 0 {
		d.CurrentPeriodStart = time.Unix(start, 0).UTC()
	}
	if end > 0 {
		d.CurrentPeriodEnd = time.Unix(end, 0).UTC()
	}
	return d, nil
}

func decodeInvoice(raw json.RawMessage) (*model.InvoiceEventData, error) {
	var inv struct {
		ID           string `json:"id"`
		Subscription objRef `json:"subscription"`
		AmountPaid   int64  `json:"amount_paid"`
		PeriodEnd    int64  `json:"period_end"`
		Lines        struct {
			Data []struct {
				Period struct {
					End int64 `json:"end"`
				} `json:"period"`
			} `json:"data"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}

	d := &model.InvoiceEventData{
		InvoiceID:      inv.ID,
		SubscriptionID: string(inv.Subscription),
		AmountCents:    inv.AmountPaid,
	}
	end := inv.PeriodEnd
	if end == 0 && len(inv.Lines.Data) > 0 {
		end = inv.Lines.Data[0].Period.End
	}
	if end > 0 {
		d.PeriodEnd = time.Unix(end, 0).UTC()
	}
	return d, nil
}

func decodeAccount(raw json.RawMessage) (*model.AccountEventData, error) {
	var a struct {
		ID             string `json:"id"`
		ChargesEnabled bool   `json:"charges_enabled"`
		PayoutsEnabled bool   `json:"payouts_enabled"`
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &model.AccountEventData{
		AccountID:      a.ID,
		ChargesEnabled: a.ChargesEnabled,
		PayoutsEnabled: a.PayoutsEnabled,
	}, nil
}
