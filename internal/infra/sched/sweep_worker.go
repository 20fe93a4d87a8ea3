package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain/ports/repository"
	"laundry-settlement/internal/usecase"
)

// SweepWorker periodically scans for payments stuck PENDING and asks the
// processor for their real outcome. This closes the out-of-order-delivery
// gap: a webhook that arrived before its local Payment record committed was
// logged and dropped, and this sweep finalizes the payment once the record
// exists.
type SweepWorker struct {
	uc         usecase.SettlementUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	batchSize  int
	log        *zerolog.Logger
}

func NewSweepWorker(uc usecase.SettlementUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration, batchSize int, logger *zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	l := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{uc: uc, payments: payments, interval: interval, staleAfter: staleAfter, batchSize: batchSize, log: &l}
}

func (w *SweepWorker) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *SweepWorker) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending payments failed")
		return
	}
	for _, p := range pending {
		if p.ProcessorRef == "" {
			continue
		}
		if err := w.uc.ReconcileStale(ctx, p); err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Str("processor_ref", p.ProcessorRef).
				Msg("stale payment reconcile failed")
			continue
		}
		w.log.Info().Str("payment_id", p.ID).Msg("stale payment reconciled")
	}
}
