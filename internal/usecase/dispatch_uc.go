// File: internal/usecase/dispatch_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"
	"laundry-settlement/internal/infra/logging"
	"laundry-settlement/internal/infra/metrics"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchUseCase routes a verified event to its handler. The dedup mark and
// the handler's state transition commit as one transaction, so a redelivered
// event can never be marked processed without its side effects (or the other
// way round). Transfers are emitted strictly after the commit.
type DispatchUseCase interface {
	Dispatch(ctx context.Context, ev *model.Event) error
}

type dispatchUC struct {
	tm           repository.TransactionManager
	events       repository.ProcessedEventRepository
	audit        repository.AuditSink
	directory    repository.DirectoryRepository
	settlement   SettlementUseCase
	subscription SubscriptionUseCase
	log          *zerolog.Logger
}

func NewDispatchUseCase(
	tm repository.TransactionManager,
	events repository.ProcessedEventRepository,
	audit repository.AuditSink,
	directory repository.DirectoryRepository,
	settlement SettlementUseCase,
	subscription SubscriptionUseCase,
	logger *zerolog.Logger,
) *dispatchUC {
	l := logger.With().Str("component", "DispatchUC").Logger()
	return &dispatchUC{
		tm:           tm,
		events:       events,
		audit:        audit,
		directory:    directory,
		settlement:   settlement,
		subscription: subscription,
		log:          &l,
	}
}

func (u *dispatchUC) Dispatch(ctx context.Context, ev *model.Event) error {
	defer logging.TraceDuration(u.log, "DispatchUC.Dispatch")()

	// Cheap read before opening a transaction; redeliveries are common
	// enough that skipping the tx for them pays off. MarkProcessed inside
	// the tx stays the authoritative guard.
	if seen, err := u.events.Seen(ctx, repository.NoTX, ev.ID); err == nil && seen {
		u.log.Debug().Str("event_id", ev.ID).Str("type", string(ev.Type)).Msg("duplicate event, skipping")
		metrics.IncWebhookEvent(string(ev.Type), "duplicate")
		return nil
	}

	// Collected inside the transaction, run after it commits. Blocking
	// processor I/O must not hold the transaction open.
	var postCommit []func(ctx context.Context)

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.events.MarkProcessed(ctx, tx, ev.ID, string(ev.Type), ev.ReceivedAt); err != nil {
			return err
		}

		switch ev.Type {
		case model.EventPaymentSucceeded:
			settled, err := u.settlement.ConfirmPayment(ctx, tx, ev.Payment)
			if err != nil {
				return err
			}
			if settled != nil {
				postCommit = append(postCommit, func(ctx context.Context) {
					ctx = logging.WithOrderID(ctx, settled.OrderID)
					if err := u.settlement.EmitTransfers(ctx, settled); err != nil &&
						!errors.Is(err, domain.ErrTransferEmitted) {
						u.log.Error().Err(err).Str("payment_id", settled.ID).
							Msg("transfer emission failed after settlement commit")
					}
				})
			}
			return nil

		case model.EventPaymentFailed:
			return u.settlement.FailPayment(ctx, tx, ev.Payment)

		case model.EventSubscriptionCreated:
			return u.subscription.Created(ctx, tx, ev.Subscription)
		case model.EventSubscriptionUpdated:
			return u.subscription.Updated(ctx, tx, ev.Subscription)
		case model.EventSubscriptionDeleted:
			return u.subscription.Deleted(ctx, tx, ev.Subscription)
		case model.EventInvoicePaid:
			return u.subscription.InvoicePaid(ctx, tx, ev.Invoice)

		case model.EventAccountUpdated:
			return u.accountUpdated(ctx, tx, ev)

		case model.EventTransferCreated, model.EventPayoutCreated, model.EventPayoutFailed:
			// Observational: recorded for reconciliation only.
			return u.auditObservational(ctx, tx, ev)

		default:
			// Event type not handled; acknowledged and ignored.
			return nil
		}
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyProcessed):
		u.log.Debug().Str("event_id", ev.ID).Str("type", string(ev.Type)).Msg("duplicate event, skipping")
		metrics.IncWebhookEvent(string(ev.Type), "duplicate")
		return nil
	case errors.Is(err, domain.ErrNotFound):
		// The event references a record that has not landed locally yet
		// (out-of-order delivery). Logged and dropped; the stale-payment
		// sweep compensates.
		u.log.Warn().Str("event_id", ev.ID).Str("type", string(ev.Type)).
			Msg("event references unknown local record, dropping")
		metrics.IncWebhookEvent(string(ev.Type), "dropped")
		return nil
	default:
		metrics.IncWebhookEvent(string(ev.Type), "error")
		return err
	}

	for _, f := range postCommit {
		f(ctx)
	}
	metrics.IncWebhookEvent(string(ev.Type), "processed")
	return nil
}

func (u *dispatchUC) accountUpdated(ctx context.Context, tx repository.Tx, ev *model.Event) error {
	d := ev.Account
	if err := u.directory.SetChargesEnabled(ctx, tx, d.AccountID, d.ChargesEnabled); err != nil {
		return err
	}
	return u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "account.updated",
		EntityType: "account",
		EntityID:   d.AccountID,
		Details: map[string]interface{}{
			"charges_enabled": d.ChargesEnabled,
			"payouts_enabled": d.PayoutsEnabled,
		},
		OccurredAt: time.Now(),
	})
}

func (u *dispatchUC) auditObservational(ctx context.Context, tx repository.Tx, ev *model.Event) error {
	e := &model.AuditEntry{
		ID:         uuid.NewString(),
		OccurredAt: time.Now(),
	}
	switch ev.Type {
	case model.EventTransferCreated:
		e.Action = "transfer.created"
		e.EntityType = "transfer"
		e.EntityID = ev.Transfer.TransferID
		e.Details = map[string]interface{}{
			"amount":         ev.Transfer.AmountCents,
			"destination":    ev.Transfer.Destination,
			"transfer_group": ev.Transfer.TransferGroup,
		}
	case model.EventPayoutCreated:
		e.Action = "payout.created"
		e.EntityType = "payout"
		e.EntityID = ev.Payout.PayoutID
		e.Details = map[string]interface{}{"amount": ev.Payout.AmountCents}
	case model.EventPayoutFailed:
		e.Action = "payout.failed"
		e.EntityType = "payout"
		e.EntityID = ev.Payout.PayoutID
		e.Details = map[string]interface{}{
			"amount": ev.Payout.AmountCents,
			"reason": ev.Payout.FailureReason,
		}
	}
	return u.audit.Append(ctx, tx, e)
}
