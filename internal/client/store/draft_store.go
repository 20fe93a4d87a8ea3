package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/repository"
	red "laundry-settlement/internal/infra/redis"
)

var _ repository.DraftStore = (*RedisDraftStore)(nil)

// RedisDraftStore persists offline drafts in the device-local redis instance.
// Layout: one JSON value per draft keyed by order number, a set per sync
// status as the index (an explicit status column, not key-prefix scans), and
// a counter for the local sequence.
type RedisDraftStore struct {
	client red.RedisClient
}

func NewRedisDraftStore(client red.RedisClient) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

func draftKey(orderNumber string) string { return "draft:" + orderNumber }

func statusKey(status model.SyncStatus) string {
	return fmt.Sprintf("drafts:status:%s", status)
}

const seqKey = "drafts:seq"

func (s *RedisDraftStore) Upsert(ctx context.Context, d *model.DraftOrder) error {
	if d.OrderNumber == "" {
		return domain.ErrInvalidArgument
	}
	now := time.Now()

	existing, err := s.Get(ctx, d.OrderNumber)
	switch {
	case err == nil:
		if existing.SyncStatus == model.SyncStatusSyncing {
			// The draft is mid-flight; edits have to wait for the
			// drain to settle it one way or the other.
			return domain.ErrDraftLocked
		}
		// Re-save keeps identity and sync state; only the payload and
		// UpdatedAt move.
		d.LocalSeq = existing.LocalSeq
		d.CreatedAt = existing.CreatedAt
		d.SyncStatus = existing.SyncStatus
		d.SyncError = existing.SyncError
	case err == domain.ErrNotFound:
		seq, err := s.client.Incr(ctx, seqKey)
		if err != nil {
			return err
		}
		d.LocalSeq = seq
		d.CreatedAt = now
		d.SyncStatus = model.SyncStatusPending
		if err := s.client.SAdd(ctx, statusKey(model.SyncStatusPending), d.OrderNumber); err != nil {
			return err
		}
	default:
		return err
	}

	d.UpdatedAt = now
	d.RecalcTotals()

	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKey(d.OrderNumber), data, 0)
}

func (s *RedisDraftStore) Get(ctx context.Context, orderNumber string) (*model.DraftOrder, error) {
	data, err := s.client.Get(ctx, draftKey(orderNumber))
	if err != nil {
		if red.IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var d model.DraftOrder
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *RedisDraftStore) ListByStatus(ctx context.Context, status model.SyncStatus) ([]*model.DraftOrder, error) {
	members, err := s.client.SMembers(ctx, statusKey(status))
	if err != nil {
		return nil, err
	}

	out := make([]*model.DraftOrder, 0, len(members))
	for _, orderNumber := range members {
		d, err := s.Get(ctx, orderNumber)
		if err == domain.ErrNotFound {
			// Index entry outlived its draft; heal the index.
			_ = s.client.SRem(ctx, statusKey(status), orderNumber)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	// Oldest first so the drain sends drafts in creation order.
	sort.Slice(out, func(i, j int) bool { return out[i].LocalSeq < out[j].LocalSeq })
	return out, nil
}

func (s *RedisDraftStore) UpdateSyncStatus(ctx context.Context, orderNumber string, status model.SyncStatus, syncErr string) error {
	d, err := s.Get(ctx, orderNumber)
	if err != nil {
		return err
	}

	old := d.SyncStatus
	d.SyncStatus = status
	d.SyncError = syncErr
	d.UpdatedAt = time.Now()

	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, draftKey(orderNumber), data, 0); err != nil {
		return err
	}
	if old != status {
		if err := s.client.SRem(ctx, statusKey(old), orderNumber); err != nil {
			return err
		}
		if err := s.client.SAdd(ctx, statusKey(status), orderNumber); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, orderNumber string) error {
	d, err := s.Get(ctx, orderNumber)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil
		}
		return err
	}
	if err := s.client.SRem(ctx, statusKey(d.SyncStatus), orderNumber); err != nil {
		return err
	}
	return s.client.Del(ctx, draftKey(orderNumber))
}

func (s *RedisDraftStore) PurgeSynced(ctx context.Context) (int, error) {
	members, err := s.client.SMembers(ctx, statusKey(model.SyncStatusSynced))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, orderNumber := range members {
		if err := s.client.Del(ctx, draftKey(orderNumber)); err != nil {
			return n, err
		}
		if err := s.client.SRem(ctx, statusKey(model.SyncStatusSynced), orderNumber); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
