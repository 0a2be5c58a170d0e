package bookkeeping

import (
	"context"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockJournalRepository is a mock implementation of bookkeeping.JournalRepository
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindByIdempotencyKey(ctx context.Context, key string) (*bookkeeping.JournalEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookkeeping.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]*bookkeeping.JournalEntry, error) {
	args := m.Called(ctx, aggregateType, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bookkeeping.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]*bookkeeping.JournalEntry, error) {
	args := m.Called(ctx, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bookkeeping.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) Create(ctx context.Context, entry *bookkeeping.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockSaleOrderRepository is a mock implementation of trade.SaleOrderRepository
type MockSaleOrderRepository struct {
	mock.Mock
}

func (m *MockSaleOrderRepository) FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*trade.SaleOrder, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SaleOrder), args.Error(1)
}

func (m *MockSaleOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SaleOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SaleOrder), args.Error(1)
}

func (m *MockSaleOrderRepository) Create(ctx context.Context, order *trade.SaleOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockSaleOrderRepository) Update(ctx context.Context, order *trade.SaleOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockSaleOrderRepository) SyncItems(ctx context.Context, order *trade.SaleOrder, removed []uuid.UUID) error {
	return m.Called(ctx, order, removed).Error(0)
}

// MockPaymentRepository is a mock implementation of trade.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*trade.Payment, error) {
	args := m.Called(ctx, orderID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*trade.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trade.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *trade.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *trade.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

// MockLocker records lock plans
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, plan trade.LockPlan) error {
	return m.Called(ctx, plan).Error(0)
}

// fakeScope runs fn directly against the mocks
type fakeScope struct {
	orders   *MockSaleOrderRepository
	payments *MockPaymentRepository
	journal  *MockJournalRepository
	locker   *MockLocker
}

func newFakeScope() *fakeScope {
	return &fakeScope{
		orders:   new(MockSaleOrderRepository),
		payments: new(MockPaymentRepository),
		journal:  new(MockJournalRepository),
		locker:   new(MockLocker),
	}
}

func (s *fakeScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *fakeScope) SaleOrders() trade.SaleOrderRepository   { return s.orders }
func (s *fakeScope) Payments() trade.PaymentRepository       { return s.payments }
func (s *fakeScope) Journal() bookkeeping.JournalRepository  { return s.journal }
func (s *fakeScope) Locker() trade.Locker                    { return s.locker }
