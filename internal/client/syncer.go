package client

import (
	"context"
	"time"

	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/adapter"
	"laundry-settlement/internal/domain/ports/repository"
	"laundry-settlement/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SyncQueueProcessor drains pending drafts to the backend, one at a time in
// local-sequence order. A drain runs on every connectivity-restored signal
// and on a fallback timer; both paths funnel through Drain, which is the only
// place drafts change sync state.
type SyncQueueProcessor struct {
	store    repository.DraftStore
	api      adapter.OrderAPI
	monitor  *ConnectivityMonitor
	interval time.Duration
	log      *zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncQueueProcessor(
	store repository.DraftStore,
	api adapter.OrderAPI,
	monitor *ConnectivityMonitor,
	interval time.Duration,
	logger *zerolog.Logger,
) *SyncQueueProcessor {
	l := logger.With().Str("component", "sync_queue").Logger()
	return &SyncQueueProcessor{
		store:    store,
		api:      api,
		monitor:  monitor,
		interval: interval,
		log:      &l,
	}
}

func (p *SyncQueueProcessor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-p.monitor.Resumed():
				p.Drain(ctx)
			case <-ticker.C:
				p.Drain(ctx)
			}
		}
	}()
	p.log.Info().Dur("interval", p.interval).Msg("sync queue processor started")
}

func (p *SyncQueueProcessor) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
}

// Drain sends every pending draft to the backend sequentially. Drafts left in
// "error" stay put until the next pass; a draft that fails mid-pass does not
// block the ones behind it. Returns the number of drafts synced.
func (p *SyncQueueProcessor) Drain(ctx context.Context) int {
	if !p.monitor.Online() {
		return 0
	}
	metrics.IncSyncDrain()

	// A crash mid-pass leaves drafts stranded in "syncing" with no one
	// coming back for them. Reset them to "pending" so this pass picks
	// them up; the idempotency key makes the re-send safe either way.
	stranded, err := p.store.ListByStatus(ctx, model.SyncStatusSyncing)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to list in-flight drafts")
		return 0
	}
	for _, d := range stranded {
		p.log.Warn().Str("order_number", d.OrderNumber).Msg("recovering draft stranded mid-sync")
		if err := p.store.UpdateSyncStatus(ctx, d.OrderNumber, model.SyncStatusPending, ""); err != nil {
			p.log.Error().Err(err).Str("order_number", d.OrderNumber).Msg("failed to recover stranded draft")
		}
	}

	// Snapshot once; drafts edited after this point join the next pass.
	pending, err := p.store.ListByStatus(ctx, model.SyncStatusPending)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to list pending drafts")
		return 0
	}
	retries, err := p.store.ListByStatus(ctx, model.SyncStatusError)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to list errored drafts")
		return 0
	}
	pending = append(pending, retries...)
	if len(pending) == 0 {
		return 0
	}

	synced := 0
	for _, d := range pending {
		if ctx.Err() != nil {
			break
		}
		if p.syncOne(ctx, d) {
			synced++
		}
	}

	if purged, err := p.store.PurgeSynced(ctx); err != nil {
		p.log.Error().Err(err).Msg("failed to purge synced drafts")
	} else if purged > 0 {
		p.log.Debug().Int("purged", purged).Msg("synced drafts purged")
	}
	return synced
}

func (p *SyncQueueProcessor) syncOne(ctx context.Context, d *model.DraftOrder) bool {
	if err := p.store.UpdateSyncStatus(ctx, d.OrderNumber, model.SyncStatusSyncing, ""); err != nil {
		p.log.Error().Err(err).Str("order_number", d.OrderNumber).Msg("failed to mark draft syncing")
		return false
	}

	// The order number doubles as the idempotency key: a retry after a lost
	// response re-sends the same key and the backend returns the original
	// order instead of creating a second one.
	orderID, err := p.api.CreateOrder(ctx, d.OrderNumber, d)
	if err != nil {
		p.log.Warn().Err(err).Str("order_number", d.OrderNumber).Msg("draft sync failed")
		metrics.IncDraftSynced("error")
		if uerr := p.store.UpdateSyncStatus(ctx, d.OrderNumber, model.SyncStatusError, err.Error()); uerr != nil {
			p.log.Error().Err(uerr).Str("order_number", d.OrderNumber).Msg("failed to record sync error")
		}
		return false
	}

	if err := p.store.UpdateSyncStatus(ctx, d.OrderNumber, model.SyncStatusSynced, ""); err != nil {
		p.log.Error().Err(err).Str("order_number", d.OrderNumber).Msg("failed to mark draft synced")
		return false
	}
	metrics.IncDraftSynced("synced")
	p.log.Info().Str("order_number", d.OrderNumber).Str("order_id", orderID).Msg("draft synced")
	return true
}
