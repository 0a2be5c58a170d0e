package trade_test

import (
	"context"
	"sync"
	"testing"

	appbk "github.com/erp/wholesale/internal/application/bookkeeping"
	apptrade "github.com/erp/wholesale/internal/application/trade"
	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	storeID   uuid.UUID
	userID    uuid.UUID
	orders    *apptrade.SaleOrderService
	invoices  *apptrade.InvoiceService
	shipments *apptrade.ShipmentService
	payments  *apptrade.PaymentService
	abilities *apptrade.AbilityService
	audit     *appbk.AuditService
	events    *recordingPublisher
	logs      *observer.ObservedLogs
}

type harnessOption func(*apptrade.Dependencies)

func withSequencer(seq apptrade.Sequencer) harnessOption {
	return func(d *apptrade.Dependencies) { d.Sequencer = seq }
}

// newHarness wires the services over an in-memory SQLite database. The
// chart lives in memory so posting never reads outside the transaction.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := persistencetest.NewDB(t)
	storeID := uuid.New()

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	reads := persistence.NewGormRepositories(db)
	posting := appbk.NewPostingService(testChart(storeID), "v1", log)
	audit := appbk.NewAuditService(persistence.NewGormLedgerTransactionScope(db), reads, log)

	deps := apptrade.Dependencies{
		Scope:     persistence.NewGormTradeTransactionScope(db),
		Reads:     reads,
		Sequencer: persistence.NewGormSequencer(db, trade.DefaultNumberFormat()),
		Posting:   posting,
		Audit:     audit,
		Logger:    log,
		Settings:  apptrade.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h := &harness{
		db:        db,
		storeID:   storeID,
		userID:    uuid.New(),
		orders:    apptrade.NewSaleOrderService(deps),
		invoices:  apptrade.NewInvoiceService(deps),
		shipments: apptrade.NewShipmentService(deps),
		payments:  apptrade.NewPaymentService(deps),
		abilities: apptrade.NewAbilityService(reads),
		audit:     audit,
		events:    &recordingPublisher{},
		logs:      logs,
	}
	h.orders.SetEventPublisher(h.events)
	h.invoices.SetEventPublisher(h.events)
	h.shipments.SetEventPublisher(h.events)
	h.payments.SetEventPublisher(h.events)
	return h
}

func testChart(storeID uuid.UUID) *bookkeeping.MappingChart {
	return bookkeeping.NewMappingChart([]bookkeeping.AccountMapping{
		{StoreID: storeID, Role: bookkeeping.RoleAccountsReceivable, AccountCode: "1100"},
		{StoreID: storeID, Role: bookkeeping.RoleDeferredRevenue, AccountCode: "2400"},
		{StoreID: storeID, Role: bookkeeping.RoleWholesaleRevenue, AccountCode: "4000"},
		{StoreID: storeID, Role: bookkeeping.RoleShippingRevenue, AccountCode: "4100"},
		{StoreID: storeID, Role: bookkeeping.RoleDiscount, AccountCode: "4900"},
		{StoreID: storeID, Role: bookkeeping.RoleRefund, AccountCode: "4950"},
		{StoreID: storeID, Role: bookkeeping.RoleMerchant, AccountCode: "1010"},
	})
}

func item(sku string, qty int64, priceCents int64) apptrade.ItemInput {
	return apptrade.ItemInput{
		SKU:             sku,
		Description:     sku + " carton",
		Quantity:        decimal.NewFromInt(qty),
		UnitPriceCents:  priceCents,
		DiscountPercent: decimal.Zero,
	}
}

// createOrder creates a draft with two lines: 2 x 500 and 1 x 1000,
// 300 shipping and 100 discount, for a total of 2200
func (h *harness) createOrder(t *testing.T) *apptrade.SaleOrderResponse {
	t.Helper()
	order, err := h.orders.Create(context.Background(), h.storeID, h.userID, apptrade.CreateSaleOrderRequest{
		CustomerName:  "Acme Hardware",
		CustomerEmail: "buyer@acme.test",
		PaymentTerms:  "NET30",
		ShippingCents: 300,
		DiscountCents: 100,
		Items:         []apptrade.ItemInput{item("BOLT-10", 2, 500), item("NUT-10", 1, 1000)},
	})
	require.NoError(t, err)
	return order
}

func (h *harness) openOrder(t *testing.T) *apptrade.SaleOrderResponse {
	t.Helper()
	order := h.createOrder(t)
	opened, err := h.orders.TransitionStatus(context.Background(), h.storeID, order.ID,
		apptrade.TransitionSaleOrderRequest{Status: trade.OrderStatusOpen})
	require.NoError(t, err)
	return opened
}

func (h *harness) itemIDs(order *apptrade.SaleOrderResponse) []uuid.UUID {
	ids := make([]uuid.UUID, len(order.Items))
	for idx, it := range order.Items {
		ids[idx] = it.ID
	}
	return ids
}

func (h *harness) journal(t *testing.T, orderID uuid.UUID) []*bookkeeping.JournalEntry {
	t.Helper()
	entries, err := persistence.NewGormJournalRepository(h.db).FindByAggregate(context.Background(), bookkeeping.AggregateSaleOrder, orderID)
	require.NoError(t, err)
	return entries
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for idx, e := range p.events {
		types[idx] = e.EventType()
	}
	return types
}

// fixedSequencer always hands out the same number
type fixedSequencer struct {
	number string
	calls  int
}

func (s *fixedSequencer) NextNumber(context.Context, trade.NumberScope) (string, error) {
	s.calls++
	return s.number, nil
}
