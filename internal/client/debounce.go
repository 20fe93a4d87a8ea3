package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// AutoSaveDebouncer coalesces rapid edits to the same draft into a single
// store write. Each order number carries its own timer; a new edit resets it,
// so a burst of keystrokes produces one Upsert after the quiet period.
type AutoSaveDebouncer struct {
	store repository.DraftStore
	wait  time.Duration
	log   *zerolog.Logger

	mu      sync.Mutex
	pending map[string]*pendingSave
	closed  bool
}

type pendingSave struct {
	timer *time.Timer
	draft *model.DraftOrder
}

func NewAutoSaveDebouncer(store repository.DraftStore, wait time.Duration, logger *zerolog.Logger) *AutoSaveDebouncer {
	l := logger.With().Str("component", "autosave").Logger()
	return &AutoSaveDebouncer{
		store:   store,
		wait:    wait,
		log:     &l,
		pending: make(map[string]*pendingSave),
	}
}

// Save schedules d for persistence after the quiet period. Later calls for
// the same order number replace the queued payload, so only the newest state
// is written.
func (a *AutoSaveDebouncer) Save(d *model.DraftOrder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	if p, ok := a.pending[d.OrderNumber]; ok {
		p.draft = d
		p.timer.Reset(a.wait)
		return
	}

	orderNumber := d.OrderNumber
	p := &pendingSave{draft: d}
	p.timer = time.AfterFunc(a.wait, func() { a.fire(orderNumber) })
	a.pending[orderNumber] = p
}

func (a *AutoSaveDebouncer) fire(orderNumber string) {
	a.mu.Lock()
	p, ok := a.pending[orderNumber]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.pending, orderNumber)
	d := p.draft
	a.mu.Unlock()

	a.persist(d)
}

// Flush writes every queued draft immediately. Called on shutdown so an edit
// made just before closing the app is not lost.
func (a *AutoSaveDebouncer) Flush() {
	a.mu.Lock()
	drafts := make([]*model.DraftOrder, 0, len(a.pending))
	for orderNumber, p := range a.pending {
		p.timer.Stop()
		drafts = append(drafts, p.draft)
		delete(a.pending, orderNumber)
	}
	a.mu.Unlock()

	for _, d := range drafts {
		a.persist(d)
	}
}

// Close flushes pending saves and rejects further ones.
func (a *AutoSaveDebouncer) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.Flush()
}

func (a *AutoSaveDebouncer) persist(d *model.DraftOrder) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		err := a.store.Upsert(ctx, d)
		if err == nil {
			a.log.Debug().Str("order_number", d.OrderNumber).Msg("draft autosaved")
			return
		}
		if !errors.Is(err, domain.ErrDraftLocked) {
			a.log.Error().Err(err).Str("order_number", d.OrderNumber).Msg("autosave failed")
			return
		}
		// Mid-sync; the drain settles the draft quickly, so wait it out
		// here. Re-queuing through Save would lose the edit when the
		// flush runs during Close.
		a.log.Debug().Str("order_number", d.OrderNumber).Msg("draft locked by sync, waiting")
		select {
		case <-ctx.Done():
			a.log.Error().Str("order_number", d.OrderNumber).Msg("autosave gave up waiting for sync")
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}
