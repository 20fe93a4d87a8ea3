// File: internal/usecase/settlement_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/adapter"
	"laundry-settlement/internal/domain/ports/repository"
	"laundry-settlement/internal/infra/logging"
	"laundry-settlement/internal/infra/metrics"
)

// Compile-time check
var _ SettlementUseCase = (*settlementUC)(nil)

type SettlementUseCase interface {
	// ConfirmPayment applies a payment_succeeded event inside the caller's
	// transaction: payment -> COMPLETED with its computed split, order ->
	// CONFIRMED. Returns the settled payment for post-commit transfer
	// emission, or nil when the event was a terminal-state no-op.
	ConfirmPayment(ctx context.Context, tx repository.Tx, d *model.PaymentEventData) (*model.Payment, error)
	// FailPayment applies a payment_failed event: payment -> FAILED, order ->
	// PAYMENT_FAILED. No payout is computed.
	FailPayment(ctx context.Context, tx repository.Tx, d *model.PaymentEventData) error
	// EmitTransfers issues the merchant and driver transfers for a settled
	// payment. Called strictly after the settlement transaction has
	// committed; a transfer failure never unwinds the confirmation.
	EmitTransfers(ctx context.Context, p *model.Payment) error
	// ReconcileStale re-drives a payment stuck PENDING past the sweep cutoff
	// by asking the processor for the intent's outcome.
	ReconcileStale(ctx context.Context, p *model.Payment) error
}

type settlementUC struct {
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	directory repository.DirectoryRepository
	audit     repository.AuditSink
	processor adapter.ProcessorClient
	tm        repository.TransactionManager
	fees      model.FeeSchedule
	log       *zerolog.Logger
}

func NewSettlementUseCase(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	directory repository.DirectoryRepository,
	audit repository.AuditSink,
	processor adapter.ProcessorClient,
	tm repository.TransactionManager,
	fees model.FeeSchedule,
	logger *zerolog.Logger,
) *settlementUC {
	l := logger.With().Str("component", "SettlementUC").Logger()
	return &settlementUC{
		payments:  payments,
		orders:    orders,
		directory: directory,
		audit:     audit,
		processor: processor,
		tm:        tm,
		fees:      fees,
		log:       &l,
	}
}

func (u *settlementUC) ConfirmPayment(ctx context.Context, tx repository.Tx, d *model.PaymentEventData) (*model.Payment, error) {
	p, err := u.payments.FindByProcessorRef(ctx, tx, d.ProcessorRef)
	if err != nil {
		return nil, err
	}
	if p.Terminal() {
		// Redelivery or a conflicting event for a settled payment. Terminal
		// states never transition again.
		u.log.Warn().Str("payment_id", p.ID).Str("status", string(p.Status)).
			Str("processor_ref", d.ProcessorRef).Msg("ignoring event for terminal payment")
		return nil, nil
	}

	order, err := u.orders.FindByID(ctx, tx, p.OrderID)
	if err != nil {
		return nil, err
	}

	split := model.ComputeSplit(p.AmountGross, u.fees)
	driverPayout := int64(0)
	if order.DriverID != nil {
		driverPayout = order.DeliveryFeeCents
	}

	if err := u.payments.MarkCompleted(ctx, tx, p.ID, split, driverPayout); err != nil {
		return nil, err
	}
	if err := u.orders.UpdateStatus(ctx, tx, order.ID, model.OrderStatusConfirmed); err != nil {
		return nil, err
	}
	if err := u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "payment.completed",
		EntityType: "payment",
		EntityID:   p.ID,
		Details: map[string]interface{}{
			"order_id":      p.OrderID,
			"gross":         p.AmountGross,
			"platform_fee":  split.PlatformFee,
			"processor_fee": split.ProcessorFee,
			"net_payout":    split.NetPayout,
			"driver_payout": driverPayout,
		},
		OccurredAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusCompleted))
	metrics.AddSettledRevenue(p.Currency, p.AmountGross)

	p.Status = model.PaymentStatusCompleted
	p.PlatformFee = &split.PlatformFee
	p.ProcessorFee = &split.ProcessorFee
	p.MerchantPayout = &split.NetPayout
	p.DriverPayout = &driverPayout
	return p, nil
}

func (u *settlementUC) FailPayment(ctx context.Context, tx repository.Tx, d *model.PaymentEventData) error {
	p, err := u.payments.FindByProcessorRef(ctx, tx, d.ProcessorRef)
	if err != nil {
		return err
	}
	if p.Terminal() {
		u.log.Warn().Str("payment_id", p.ID).Str("status", string(p.Status)).
			Msg("ignoring failure event for terminal payment")
		return nil
	}

	if err := u.payments.MarkFailed(ctx, tx, p.ID); err != nil {
		return err
	}
	if err := u.orders.UpdateStatus(ctx, tx, p.OrderID, model.OrderStatusPaymentFailed); err != nil {
		return err
	}
	if err := u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "payment.failed",
		EntityType: "payment",
		EntityID:   p.ID,
		Details: map[string]interface{}{
			"order_id": p.OrderID,
			"reason":   d.FailureReason,
		},
		OccurredAt: time.Now(),
	}); err != nil {
		return err
	}

	metrics.IncPayment(string(model.PaymentStatusFailed))
	return nil
}

func (u *settlementUC) EmitTransfers(ctx context.Context, p *model.Payment) error {
	if p.TransferID != nil {
		// Emission already happened for this payment; never pay out twice.
		return domain.ErrTransferEmitted
	}
	log := logging.With(ctx, u.log)

	order, err := u.orders.FindByID(ctx, repository.NoTX, p.OrderID)
	if err != nil {
		return err
	}

	var merchantTransferID, driverTransferID *string

	if id, err := u.emitMerchantTransfer(ctx, p, order); err != nil {
		log.Error().Err(err).Str("payment_id", p.ID).Msg("merchant transfer failed")
		metrics.IncTransfer("merchant", "error")
	} else if id != "" {
		merchantTransferID = &id
		metrics.IncTransfer("merchant", "created")
	}

	if id, err := u.emitDriverTransfer(ctx, p, order); err != nil {
		log.Error().Err(err).Str("payment_id", p.ID).Msg("driver transfer failed")
		metrics.IncTransfer("driver", "error")
	} else if id != "" {
		driverTransferID = &id
		metrics.IncTransfer("driver", "created")
	}

	if merchantTransferID == nil && driverTransferID == nil {
		return nil
	}
	return u.payments.SetTransferIDs(ctx, repository.NoTX, p.ID, merchantTransferID, driverTransferID)
}

// emitMerchantTransfer pays the merchant its net share. A merchant without a
// usable connected account is an audited skip, not an error: payout is a
// best-effort side effect of a successful charge.
func (u *settlementUC) emitMerchantTransfer(ctx context.Context, p *model.Payment, order *model.Order) (string, error) {
	if p.MerchantPayout == nil || *p.MerchantPayout <= 0 {
		return "", nil
	}

	acct, err := u.directory.MerchantAccount(ctx, repository.NoTX, order.MerchantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.auditSkip(ctx, p, "merchant", order.MerchantID, "no connected account")
			return "", nil
		}
		return "", err
	}
	if ok, err := u.accountReady(ctx, acct); err != nil {
		return "", err
	} else if !ok {
		u.auditSkip(ctx, p, "merchant", order.MerchantID, "charges not enabled")
		return "", nil
	}

	id, err := u.processor.CreateTransfer(ctx, adapter.TransferRequest{
		AmountCents:   *p.MerchantPayout,
		Currency:      p.Currency,
		Destination:   acct.AccountID,
		TransferGroup: fmt.Sprintf("ORDER_%s", order.ID),
		Metadata: map[string]string{
			"payment_id": p.ID,
			"order_id":   order.ID,
		},
	})
	if err != nil {
		return "", err
	}

	_ = u.audit.Append(ctx, repository.NoTX, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "transfer.merchant_emitted",
		EntityType: "transfer",
		EntityID:   id,
		Details: map[string]interface{}{
			"payment_id": p.ID,
			"amount":     *p.MerchantPayout,
			"merchant":   order.MerchantID,
		},
		OccurredAt: time.Now(),
	})
	return id, nil
}

// emitDriverTransfer forwards the order's delivery fee to the assigned driver.
func (u *settlementUC) emitDriverTransfer(ctx context.Context, p *model.Payment, order *model.Order) (string, error) {
	if order.DriverID == nil || order.DeliveryFeeCents <= 0 {
		return "", nil
	}

	acct, err := u.directory.DriverAccount(ctx, repository.NoTX, *order.DriverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.auditSkip(ctx, p, "driver", *order.DriverID, "no connected account")
			return "", nil
		}
		return "", err
	}
	if ok, err := u.accountReady(ctx, acct); err != nil {
		return "", err
	} else if !ok {
		u.auditSkip(ctx, p, "driver", *order.DriverID, "charges not enabled")
		return "", nil
	}

	id, err := u.processor.CreateTransfer(ctx, adapter.TransferRequest{
		AmountCents:   order.DeliveryFeeCents,
		Currency:      p.Currency,
		Destination:   acct.AccountID,
		TransferGroup: fmt.Sprintf("DELIVERY_%s", order.ID),
		Metadata: map[string]string{
			"payment_id": p.ID,
			"order_id":   order.ID,
			"driver_id":  *order.DriverID,
		},
	})
	if err != nil {
		return "", err
	}

	_ = u.audit.Append(ctx, repository.NoTX, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "transfer.driver_emitted",
		EntityType: "transfer",
		EntityID:   id,
		Details: map[string]interface{}{
			"payment_id": p.ID,
			"amount":     order.DeliveryFeeCents,
			"driver":     *order.DriverID,
		},
		OccurredAt: time.Now(),
	})
	return id, nil
}

// accountReady checks the locally cached onboarding flag first and falls back
// to a live processor lookup when the cache says the account is not ready,
// since account.updated events can lag onboarding completion.
func (u *settlementUC) accountReady(ctx context.Context, acct *repository.ConnectedAccount) (bool, error) {
	if acct.ChargesEnabled {
		return true, nil
	}
	enabled, err := u.processor.AccountChargesEnabled(ctx, acct.AccountID)
	if err != nil {
		return false, err
	}
	if enabled {
		_ = u.directory.SetChargesEnabled(ctx, repository.NoTX, acct.AccountID, true)
	}
	return enabled, nil
}

func (u *settlementUC) auditSkip(ctx context.Context, p *model.Payment, party, partyID, reason string) {
	_ = u.audit.Append(ctx, repository.NoTX, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "transfer.skipped",
		EntityType: "payment",
		EntityID:   p.ID,
		Details: map[string]interface{}{
			"party":    party,
			"party_id": partyID,
			"reason":   reason,
		},
		OccurredAt: time.Now(),
	})
	metrics.IncTransfer(party, "skipped")
	u.log.Info().Str("payment_id", p.ID).Str("party", party).Str("party_id", partyID).
		Str("reason", reason).Msg("transfer skipped")
}

func (u *settlementUC) ReconcileStale(ctx context.Context, p *model.Payment) error {
	status, err := u.processor.PaymentIntentStatus(ctx, p.ProcessorRef)
	if err != nil {
		return err
	}

	data := &model.PaymentEventData{ProcessorRef: p.ProcessorRef, AmountCents: p.AmountGross, Currency: p.Currency}

	switch status {
	case adapter.IntentStatusSucceeded:
		var settled *model.Payment
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			var err error
			settled, err = u.ConfirmPayment(ctx, tx, data)
			return err
		})
		if err != nil {
			return err
		}
		if settled != nil {
			return u.EmitTransfers(ctx, settled)
		}
		return nil
	case adapter.IntentStatusFailed:
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return u.FailPayment(ctx, tx, data)
		})
	default:
		// Still pending at the processor; nothing to reconcile yet.
		return nil
	}
}
