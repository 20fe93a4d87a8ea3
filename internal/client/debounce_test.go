//go:build !integration

package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"laundry-settlement/internal/client"
	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
)

// lockedDraftStore rejects the first few upserts the way the real store does
// while the sync queue has the draft in flight.
type lockedDraftStore struct {
	*memDraftStore
	mu    sync.Mutex
	locks int
}

func (s *lockedDraftStore) Upsert(ctx context.Context, d *model.DraftOrder) error {
	s.mu.Lock()
	if s.locks > 0 {
		s.locks--
		s.mu.Unlock()
		return domain.ErrDraftLocked
	}
	s.mu.Unlock()
	return s.memDraftStore.Upsert(ctx, d)
}

func TestAutoSaveDebouncer(t *testing.T) {
	ctx := context.Background()

	t.Run("should coalesce a burst of edits into one save with the newest payload", func(t *testing.T) {
		storeMem := newMemDraftStore()
		deb := client.NewAutoSaveDebouncer(storeMem, 30*time.Millisecond, testLogger())
		defer deb.Close()

		for q := 1; q <= 5; q++ {
			deb.Save(&model.DraftOrder{
				OrderNumber: "LND-1",
				Items:       []model.DraftItem{{Name: "Wash & Fold", Quantity: q, UnitPriceCents: 1000}},
			})
		}

		deadline := time.After(2 * time.Second)
		for {
			if d, err := storeMem.Get(ctx, "LND-1"); err == nil {
				if d.SubtotalCents != 5000 {
					t.Errorf("subtotal = %d, want the last edit (5000)", d.SubtotalCents)
				}
				if d.LocalSeq != 1 {
					t.Errorf("local seq = %d, burst must produce a single insert", d.LocalSeq)
				}
				return
			}
			select {
			case <-deadline:
				t.Fatal("debounced save never fired")
			case <-time.After(5 * time.Millisecond):
			}
		}
	})

	t.Run("should keep drafts for different order numbers independent", func(t *testing.T) {
		storeMem := newMemDraftStore()
		deb := client.NewAutoSaveDebouncer(storeMem, 20*time.Millisecond, testLogger())
		defer deb.Close()

		deb.Save(&model.DraftOrder{OrderNumber: "LND-1"})
		deb.Save(&model.DraftOrder{OrderNumber: "LND-2"})

		deadline := time.After(2 * time.Second)
		for {
			_, err1 := storeMem.Get(ctx, "LND-1")
			_, err2 := storeMem.Get(ctx, "LND-2")
			if err1 == nil && err2 == nil {
				return
			}
			select {
			case <-deadline:
				t.Fatal("both drafts should persist")
			case <-time.After(5 * time.Millisecond):
			}
		}
	})

	t.Run("should flush queued saves on close so nothing is lost", func(t *testing.T) {
		storeMem := newMemDraftStore()
		deb := client.NewAutoSaveDebouncer(storeMem, time.Hour, testLogger())

		deb.Save(&model.DraftOrder{OrderNumber: "LND-1"})
		deb.Close()

		if _, err := storeMem.Get(ctx, "LND-1"); err != nil {
			t.Errorf("queued save lost on close: %v", err)
		}

		// Saves after close are rejected.
		deb.Save(&model.DraftOrder{OrderNumber: "LND-2"})
		deb.Flush()
		if _, err := storeMem.Get(ctx, "LND-2"); err == nil {
			t.Error("save accepted after close")
		}
	})

	t.Run("should wait out a mid-sync lock when flushing on close", func(t *testing.T) {
		storeMem := &lockedDraftStore{memDraftStore: newMemDraftStore(), locks: 2}
		deb := client.NewAutoSaveDebouncer(storeMem, time.Hour, testLogger())

		deb.Save(&model.DraftOrder{OrderNumber: "LND-1"})
		deb.Close()

		if _, err := storeMem.Get(ctx, "LND-1"); err != nil {
			t.Errorf("final edit lost to the sync lock: %v", err)
		}
	})
}
