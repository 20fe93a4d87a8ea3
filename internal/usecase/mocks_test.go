//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"laundry-settlement/internal/domain"
	"laundry-settlement/internal/domain/model"
	"laundry-settlement/internal/domain/ports/adapter"
	"laundry-settlement/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock PaymentRepo ----

type MockPaymentRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Payment
	byRef map[string]string // processor ref -> id

	SaveFunc         func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	MarkCompletedErr error
	SetTransferErr   error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{byID: map[string]*model.Payment{}, byRef: map[string]string{}}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.byID[p.ID] = &cp
	m.byRef[p.ProcessorRef] = p.ID
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByProcessorRef(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byRef[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MockPaymentRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, split model.PayoutSplit, driverPayout int64) error {
	if m.MarkCompletedErr != nil {
		return m.MarkCompletedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusCompleted
	p.PlatformFee = &split.PlatformFee
	p.ProcessorFee = &split.ProcessorFee
	p.MerchantPayout = &split.NetPayout
	p.DriverPayout = &driverPayout
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = model.PaymentStatusFailed
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) SetTransferIDs(ctx context.Context, tx repository.Tx, id string, transferID, driverTransferID *string) error {
	if m.SetTransferErr != nil {
		return m.SetTransferErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if transferID != nil {
		p.TransferID = transferID
	}
	if driverTransferID != nil {
		p.DriverTransferID = driverTransferID
	}
	return nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.byID {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ---- Mock OrderRepo ----

type MockOrderRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Order
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{byID: map[string]*model.Order{}}
}

func (m *MockOrderRepo) Put(o *model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.byID[o.ID] = &cp
}

func (m *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *MockOrderRepo) StatusOf(id string) model.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byID[id]; ok {
		return o.Status
	}
	return ""
}

// ---- Mock SubscriptionRepo ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Subscription
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{byID: map[string]*model.Subscription{}}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) UpdatePeriod(ctx context.Context, tx repository.Tx, id string, status model.SubscriptionStatus, periodStart, periodEnd time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.CurrentPeriodStart = periodStart
	s.CurrentPeriodEnd = periodEnd
	return nil
}

func (m *MockSubscriptionRepo) Cancel(ctx context.Context, tx repository.Tx, id string, cancelledAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = model.SubscriptionStatusCancelled
	s.CancelledAt = &cancelledAt
	return nil
}

// ---- Mock ProcessedEventRepo ----

type MockEventRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

var _ repository.ProcessedEventRepository = (*MockEventRepo)(nil)

func NewMockEventRepo() *MockEventRepo {
	return &MockEventRepo{seen: map[string]bool{}}
}

func (m *MockEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID, eventType string, receivedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[eventID] {
		return domain.ErrAlreadyProcessed
	}
	m.seen[eventID] = true
	return nil
}

func (m *MockEventRepo) Seen(ctx context.Context, tx repository.Tx, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventID], nil
}

// ---- Mock AuditSink ----

type MockAuditSink struct {
	mu      sync.Mutex
	Entries []*model.AuditEntry
}

var _ repository.AuditSink = (*MockAuditSink)(nil)

func NewMockAuditSink() *MockAuditSink { return &MockAuditSink{} }

func (m *MockAuditSink) Append(ctx context.Context, tx repository.Tx, e *model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.Entries = append(m.Entries, &cp)
	return nil
}

func (m *MockAuditSink) ListByEntity(ctx context.Context, tx repository.Tx, entityType, entityID string, limit int) ([]*model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AuditEntry
	for _, e := range m.Entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Actions returns the recorded action names in order, for assertions.
func (m *MockAuditSink) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Action)
	}
	return out
}

// ---- Mock DirectoryRepo ----

type MockDirectoryRepo struct {
	mu        sync.Mutex
	merchants map[string]*repository.ConnectedAccount
	drivers   map[string]*repository.ConnectedAccount
	enabled   map[string]bool // by account id, from SetChargesEnabled
}

var _ repository.DirectoryRepository = (*MockDirectoryRepo)(nil)

func NewMockDirectoryRepo() *MockDirectoryRepo {
	return &MockDirectoryRepo{
		merchants: map[string]*repository.ConnectedAccount{},
		drivers:   map[string]*repository.ConnectedAccount{},
		enabled:   map[string]bool{},
	}
}

func (m *MockDirectoryRepo) PutMerchant(merchantID, accountID string, chargesEnabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants[merchantID] = &repository.ConnectedAccount{AccountID: accountID, ChargesEnabled: chargesEnabled}
}

func (m *MockDirectoryRepo) PutDriver(driverID, accountID string, chargesEnabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driverID] = &repository.ConnectedAccount{AccountID: accountID, ChargesEnabled: chargesEnabled}
}

func (m *MockDirectoryRepo) MerchantAccount(ctx context.Context, tx repository.Tx, merchantID string) (*repository.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.merchants[merchantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *MockDirectoryRepo) DriverAccount(ctx context.Context, tx repository.Tx, driverID string) (*repository.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.drivers[driverID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *MockDirectoryRepo) SetChargesEnabled(ctx context.Context, tx repository.Tx, accountID string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[accountID] = enabled
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock ProcessorClient ----

type MockProcessor struct {
	mu        sync.Mutex
	Transfers []adapter.TransferRequest

	CreateTransferFunc func(ctx context.Context, req adapter.TransferRequest) (string, error)
	ChargesEnabled     map[string]bool
	IntentStatuses     map[string]adapter.IntentStatus
}

var _ adapter.ProcessorClient = (*MockProcessor)(nil)

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{
		ChargesEnabled: map[string]bool{},
		IntentStatuses: map[string]adapter.IntentStatus{},
	}
}

func (m *MockProcessor) Name() string { return "mock" }

func (m *MockProcessor) CreateTransfer(ctx context.Context, req adapter.TransferRequest) (string, error) {
	if m.CreateTransferFunc != nil {
		return m.CreateTransferFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transfers = append(m.Transfers, req)
	return fmt.Sprintf("tr_%d", len(m.Transfers)), nil
}

func (m *MockProcessor) AccountChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ChargesEnabled[accountID], nil
}

func (m *MockProcessor) PaymentIntentStatus(ctx context.Context, ref string) (adapter.IntentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.IntentStatuses[ref]; ok {
		return st, nil
	}
	return adapter.IntentStatusPending, nil
}

func (m *MockProcessor) TransferCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transfers)
}

// ---- Mock TxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately with NoTX by default; assign WithTxFunc
// to observe or fail the transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
