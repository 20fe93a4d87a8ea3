//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"
	"laundry-settlement/internal/usecase"
)

type dispatchDeps struct {
	*settlementDeps
	events *MockEventRepo
	subs   *MockSubscriptionRepo
	uc     usecase.DispatchUseCase
}

func newDispatchDeps() *dispatchDeps {
	s := newSettlementDeps()
	d := &dispatchDeps{
		settlementDeps: s,
		events:         NewMockEventRepo(),
		subs:           NewMockSubscriptionRepo(),
	}
	subUC := usecase.NewSubscriptionUseCase(d.subs, s.audit, newTestLogger())
	d.uc = usecase.NewDispatchUseCase(s.tm, d.events, s.audit, s.directory, s.uc, subUC, newTestLogger())
	return d
}

func paymentEvent(id string, typ model.EventType, ref string) *model.Event {
	return &model.Event{
		ID:         id,
		Type:       typ,
		ReceivedAt: time.Now(),
		Payment:    &model.PaymentEventData{ProcessorRef: ref, AmountCents: 4500, Currency: "usd"},
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should settle and pay out exactly once across redeliveries", func(t *testing.T) {
		// --- Arrange ---
		deps := newDispatchDeps()
		deps.seedOrder(ctx, strPtr("driver-1"))
		deps.directory.PutMerchant("merchant-1", "acct_m1", true)
		deps.directory.PutDriver("driver-1", "acct_d1", true)

		ev := paymentEvent("evt_1", model.EventPaymentSucceeded, "pi_123")

		// --- Act: deliver the same event three times ---
		for i := 0; i < 3; i++ {
			if err := deps.uc.Dispatch(ctx, ev); err != nil {
				t.Fatalf("dispatch %d: %v", i, err)
			}
		}

		// --- Assert ---
		stored, _ := deps.payments.FindByID(ctx, nil, "pay-1")
		if stored.Status != model.PaymentStatusCompleted {
			t.Errorf("payment status = %s, want COMPLETED", stored.Status)
		}
		if deps.processor.TransferCount() != 2 {
			t.Errorf("transfer count = %d, want exactly 2 (merchant + driver) for 3 deliveries", deps.processor.TransferCount())
		}
		completed := 0
		for _, a := range deps.audit.Actions() {
			if a == "payment.completed" {
				completed++
			}
		}
		if completed != 1 {
			t.Errorf("payment.completed audited %d times, want 1", completed)
		}
	})

	t.Run("should short-circuit a known duplicate without opening a transaction", func(t *testing.T) {
		deps := newDispatchDeps()
		deps.seedOrder(ctx, nil)
		deps.directory.PutMerchant("merchant-1", "acct_m1", true)

		txCount := 0
		deps.tm.WithTxFunc = func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
			txCount++
			return fn(ctx, repository.NoTX)
		}

		ev := paymentEvent("evt_1", model.EventPaymentSucceeded, "pi_123")
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Fatalf("first dispatch: %v", err)
		}
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Fatalf("redelivery: %v", err)
		}

		if txCount != 1 {
			t.Errorf("transactions opened = %d, want 1 (redelivery answered from the dedup set)", txCount)
		}
	})

	t.Run("should not pay out twice for distinct events hitting a terminal payment", func(t *testing.T) {
		deps := newDispatchDeps()
		deps.seedOrder(ctx, nil)
		deps.directory.PutMerchant("merchant-1", "acct_m1", true)

		// Two different event ids referencing the same intent: the dedup set
		// does not catch the second one, the terminal-state check must.
		if err := deps.uc.Dispatch(ctx, paymentEvent("evt_1", model.EventPaymentSucceeded, "pi_123")); err != nil {
			t.Fatalf("first dispatch: %v", err)
		}
		if err := deps.uc.Dispatch(ctx, paymentEvent("evt_2", model.EventPaymentSucceeded, "pi_123")); err != nil {
			t.Fatalf("second dispatch: %v", err)
		}

		if deps.processor.TransferCount() != 1 {
			t.Errorf("transfer count = %d, want 1", deps.processor.TransferCount())
		}
	})

	t.Run("should acknowledge and drop an event for an unknown payment", func(t *testing.T) {
		deps := newDispatchDeps()

		err := deps.uc.Dispatch(ctx, paymentEvent("evt_1", model.EventPaymentSucceeded, "pi_ghost"))
		if err != nil {
			t.Errorf("unknown-record event must be dropped, not errored: %v", err)
		}
		if deps.processor.TransferCount() != 0 {
			t.Error("no transfer may be emitted for a dropped event")
		}
	})

	t.Run("should fail the payment and order on payment_failed", func(t *testing.T) {
		deps := newDispatchDeps()
		deps.seedOrder(ctx, nil)

		ev := paymentEvent("evt_1", model.EventPaymentFailed, "pi_123")
		ev.Payment.FailureReason = "card_declined"
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Fatalf("dispatch: %v", err)
		}

		stored, _ := deps.payments.FindByID(ctx, nil, "pay-1")
		if stored.Status != model.PaymentStatusFailed {
			t.Errorf("payment status = %s, want FAILED", stored.Status)
		}
		if got := deps.orders.StatusOf("order-1"); got != model.OrderStatusPaymentFailed {
			t.Errorf("order status = %s, want PAYMENT_FAILED", got)
		}
	})

	t.Run("should route subscription events to the lifecycle handler", func(t *testing.T) {
		deps := newDispatchDeps()

		ev := &model.Event{
			ID:           "evt_1",
			Type:         model.EventSubscriptionCreated,
			ReceivedAt:   time.Now(),
			Subscription: subEvent("sub_1", "active", "price_basic_monthly"),
		}
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if _, err := deps.subs.FindByID(ctx, nil, "sub_1"); err != nil {
			t.Errorf("subscription not created: %v", err)
		}
	})

	t.Run("should mirror onboarding state from account.updated", func(t *testing.T) {
		deps := newDispatchDeps()

		ev := &model.Event{
			ID:         "evt_1",
			Type:       model.EventAccountUpdated,
			ReceivedAt: time.Now(),
			Account:    &model.AccountEventData{AccountID: "acct_m1", ChargesEnabled: true},
		}
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if !deps.directory.enabled["acct_m1"] {
			t.Error("charges_enabled flag not mirrored")
		}
	})

	t.Run("should record observational events in the audit log only", func(t *testing.T) {
		deps := newDispatchDeps()

		ev := &model.Event{
			ID:         "evt_1",
			Type:       model.EventPayoutFailed,
			ReceivedAt: time.Now(),
			Payout:     &model.PayoutEventData{PayoutID: "po_1", AmountCents: 1000, FailureReason: "account_closed"},
		}
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if got := deps.audit.Actions(); len(got) != 1 || got[0] != "payout.failed" {
			t.Errorf("audit actions = %v, want [payout.failed]", got)
		}
	})

	t.Run("should acknowledge an unhandled event type", func(t *testing.T) {
		deps := newDispatchDeps()
		ev := &model.Event{ID: "evt_1", Type: model.EventUnknown, ReceivedAt: time.Now()}
		if err := deps.uc.Dispatch(ctx, ev); err != nil {
			t.Errorf("unhandled type must be acknowledged, got %v", err)
		}
	})
}
