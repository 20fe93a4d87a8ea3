package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"

	"laundry-settlement/internal/domain/ports/adapter"
)

// Ensure compile-time conformance
var _ adapter.ProcessorClient = (*StripeClient)(nil)

const providerName = "stripe"

// StripeClient wraps the Stripe API client behind the processor port. It is
// constructed once at startup and injected; nothing in this package touches
// the stripe package's global key.
type StripeClient struct {
	client *stripe.Client
}

func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{client: stripe.NewClient(secretKey)}
}

func (c *StripeClient) Name() string { return providerName }

func (c *StripeClient) CreateTransfer(ctx context.Context, req adapter.TransferRequest) (string, error) {
	params := &stripe.TransferCreateParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(req.Currency),
		Destination:   stripe.String(req.Destination),
		TransferGroup: stripe.String(req.TransferGroup),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	t, err := c.client.V1Transfers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create transfer: %w", err)
	}
	return t.ID, nil
}

func (c *StripeClient) AccountChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	acct, err := c.client.V1Accounts.GetByID(ctx, accountID, nil)
	if err != nil {
		return false, fmt.Errorf("retrieve account %s: %w", accountID, err)
	}
	return acct.ChargesEnabled, nil
}

func (c *StripeClient) PaymentIntentStatus(ctx context.Context, ref string) (adapter.IntentStatus, error) {
	pi, err := c.client.V1PaymentIntents.Retrieve(ctx, ref, nil)
	if err != nil {
		return "", fmt.Errorf("retrieve payment intent %s: %w", ref, err)
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return adapter.IntentStatusSucceeded, nil
	case stripe.PaymentIntentStatusCanceled:
		return adapter.IntentStatusFailed, nil
	default:
		return adapter.IntentStatusPending, nil
	}
}
