// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase maps processor subscription lifecycle events onto local
// records. All methods run inside the dispatcher's transaction.
type SubscriptionUseCase interface {
	Created(ctx context.Context, tx repository.Tx, d *model.SubscriptionEventData) error
	Updated(ctx context.Context, tx repository.Tx, d *model.SubscriptionEventData) error
	Deleted(ctx context.Context, tx repository.Tx, d *model.SubscriptionEventData) error
	InvoicePaid(ctx context.Context, tx repository.Tx, d *model.InvoiceEventData) error
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	audit repository.AuditSink
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, audit repository.AuditSink, logger *zerolog.Logger) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, audit: audit, log: &l}
}

func (u *subscriptionUC) Created(ctx context.Context, tx repository.Tx, d *model.SubscriptionEventData) error {
	now := time.Now()
	plan := model.PlanForPrice(d.PriceID)

	s := &model.Subscription{
		ID:                 d.SubscriptionID,
		CustomerID:         d.CustomerID,
		MerchantID:         d.MerchantID,
		Status:             model.MirrorStatus(d.Status),
		CurrentPeriodStart: d.CurrentPeriodStart,
		CurrentPeriodEnd:   d.CurrentPeriodEnd,
		AmountCents:        d.AmountCents,
		PlanType:           plan.Type,
		FreeLbsIncluded:    plan.FreeLbsIncluded,
		ExcessRateCents:    plan.ExcessRateCents,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := u.subs.Save(ctx, tx, s); err != nil {
		return err
	}
	return u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "subscription.created",
		EntityType: "subscription",
		EntityID:   s.ID,
		Details: map[string]interface{}{
			"customer_id": s.CustomerID,
			"plan_type":   s.PlanType,
			"price_id":    d.PriceID,
			"amount":      s.AmountCents,
		},
		OccurredAt: now,
	})
}

func (u *subscriptionUC) Updated(ctx context.Context, tx repository.Tx, d *model.SubscriptionEventData) error {
	existing, err := u.subs.FindByID(ctx, tx, d.SubscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Update arrived before the created event landed; materialize the
			// record rather than dropping the state.
			u.log.Warn().Str("subscription_id", d.SubscriptionID).
				Msg("update for unknown subscription, creating record")
			return u.Created(ctx, tx, d)
		}
		return err
	}
	if existing.Status == model.SubscriptionStatusCancelled {
		// Cancellation is terminal.
		u.log.Warn().Str("subscription_id", d.SubscriptionID).
			Msg("ignoring update for cancelled subscription")
		return nil
	}

	// Only status and billing period change; plan fields were resolved at
	// creation and stay put.
	if err := u.subs.UpdatePeriod(ctx, tx, d.SubscriptionID, model.MirrorStatus(d.Status), d.CurrentPeriodStart, d.CurrentPeriodEnd); err != nil {
		return err
	}
	return u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "subscription.updated",
		EntityType: "subscription",
		EntityID:   d.SubscriptionID,
		Details: map[string]interface{}{
			"status":       model.MirrorStatus(d.Status),
			"period_start": d.CurrentPeriodStart,
			"period_end":   d.CurrentPeriodEnd,
		},
		OccurredAt: time.Now(),
	})
}

func (u *subscriptionUC) Deleted(ctx context.Context, tx repository.Tx, d *model.SubscriptionEventData) error {
	now := time.Now()
	if err := u.subs.Cancel(ctx, tx, d.SubscriptionID, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("subscription_id", d.SubscriptionID).
				Msg("delete for unknown subscription, dropping")
			return nil
		}
		return err
	}
	return u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "subscription.cancelled",
		EntityType: "subscription",
		EntityID:   d.SubscriptionID,
		Details:    map[string]interface{}{"cancelled_at": now},
		OccurredAt: now,
	})
}

func (u *subscriptionUC) InvoicePaid(ctx context.Context, tx repository.Tx, d *model.InvoiceEventData) error {
	if d.SubscriptionID == "" {
		// One-off invoice, not subscription billing.
		return nil
	}
	s, err := u.subs.FindByID(ctx, tx, d.SubscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("subscription_id", d.SubscriptionID).
				Msg("invoice for unknown subscription, dropping")
			return nil
		}
		return err
	}

	// A paid invoice extends the current period and clears past-due state.
	end := d.PeriodEnd
	if end.IsZero() {
		end = s.CurrentPeriodEnd
	}
	if err := u.subs.UpdatePeriod(ctx, tx, s.ID, model.SubscriptionStatusActive, s.CurrentPeriodStart, end); err != nil {
		return err
	}
	return u.audit.Append(ctx, tx, &model.AuditEntry{
		ID:         uuid.NewString(),
		Action:     "subscription.invoice_paid",
		EntityType: "subscription",
		EntityID:   s.ID,
		Details: map[string]interface{}{
			"invoice_id": d.InvoiceID,
			"amount":     d.AmountCents,
			"period_end": end,
		},
		OccurredAt: time.Now(),
	})
}
