package bookkeeping

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerScenario struct {
	t       *testing.T
	factory *EntryFactory
	storeID uuid.UUID
	orderID uuid.UUID
	entries []*JournalEntry
}

func newLedgerScenario(t *testing.T) *ledgerScenario {
	storeID := uuid.New()
	return &ledgerScenario{
		t:       t,
		factory: NewEntryFactory(NewMappingChart(testMappings(storeID)), "v1"),
		storeID: storeID,
		orderID: uuid.New(),
	}
}

func (s *ledgerScenario) post(event EventType, sourceID uuid.UUID, edit func(*PostingFacts)) *JournalEntry {
	s.t.Helper()
	f := PostingFacts{Source: EntrySource{
		StoreID:       s.storeID,
		AggregateType: AggregateSaleOrder,
		AggregateID:   s.orderID,
		EventType:     event,
		SourceType:    SourceSaleOrder,
		SourceID:      sourceID,
	}}
	edit(&f)
	entry, err := s.factory.Build(context.Background(), f, time.Now())
	require.NoError(s.t, err)
	if entry != nil {
		s.entries = append(s.entries, entry)
	}
	return entry
}

func TestAudit_CleanLifecycleWithShipments(t *testing.T) {
	s := newLedgerScenario(t)
	s.post(EventOrderOpened, s.orderID, func(f *PostingFacts) { f.TotalCents = 1100 })
	s.post(EventPaymentReceived, uuid.New(), func(f *PostingFacts) { f.AmountCents = 1100; f.PaymentMethod = "card" })
	s.post(EventShipmentShipped, uuid.New(), func(f *PostingFacts) {
		f.TotalCents, f.ShippedSubtotalCents = 1100, 400
	})
	s.post(EventShipmentShipped, uuid.New(), func(f *PostingFacts) {
		f.TotalCents, f.ShippedSubtotalCents = 1100, 1000
		f.RecognizedByShipmentsCents = NetRoleAmount(s.entries, EventShipmentShipped, RoleDeferredRevenue, PostingDebit)
	})
	s.post(EventOrderCompleted, s.orderID, func(f *PostingFacts) {
		f.TotalCents, f.ShippingCents = 1100, 100
		f.RecognizedByShipmentsCents = NetRoleAmount(s.entries, EventShipmentShipped, RoleDeferredRevenue, PostingDebit)
	})

	verdict := Audit(s.entries, AuditFacts{TotalCents: 1100, PositivePaymentsCents: 1100}, time.Now())
	assert.False(t, verdict.Exception(), verdict.Issues)
	payload, err := verdict.Payload()
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestAudit_AdjustedTotalBalances(t *testing.T) {
	s := newLedgerScenario(t)
	s.post(EventOrderOpened, s.orderID, func(f *PostingFacts) { f.TotalCents = 2200 })
	s.post(EventOrderAdjusted, s.orderID, func(f *PostingFacts) { f.OrderVersion, f.AdjustmentCents = 2, 800 })
	s.post(EventOrderAdjusted, s.orderID, func(f *PostingFacts) { f.OrderVersion, f.AdjustmentCents = 3, -300 })
	assert.Equal(t, int64(2700), BookedReceivableCents(s.entries))
	assert.NotEqual(t, s.entries[1].IdempotencyKey, s.entries[2].IdempotencyKey)

	s.post(EventPaymentReceived, uuid.New(), func(f *PostingFacts) { f.AmountCents = 2700; f.PaymentMethod = "card" })
	s.post(EventOrderCompleted, s.orderID, func(f *PostingFacts) { f.TotalCents = 2700 })

	verdict := Audit(s.entries, AuditFacts{TotalCents: 2700, PositivePaymentsCents: 2700}, time.Now())
	assert.False(t, verdict.Exception(), verdict.Issues)
}

func TestAudit_DiscountedOrderWithoutShipments(t *testing.T) {
	s := newLedgerScenario(t)
	s.post(EventOrderOpened, s.orderID, func(f *PostingFacts) { f.TotalCents = 800 })
	s.post(EventPaymentReceived, uuid.New(), func(f *PostingFacts) { f.AmountCents = 800 })
	completed := s.post(EventOrderCompleted, s.orderID, func(f *PostingFacts) { f.TotalCents, f.DiscountCents = 800, 200 })

	assert.Equal(t, completed.DebitCents(), completed.CreditCents())
	verdict := Audit(s.entries, AuditFacts{TotalCents: 800, PositivePaymentsCents: 800}, time.Now())
	assert.Empty(t, verdict.Issues)
}

func TestAudit_RefundBeforeCompletion(t *testing.T) {
	s := newLedgerScenario(t)
	s.post(EventOrderOpened, s.orderID, func(f *PostingFacts) { f.TotalCents = 1000 })
	s.post(EventPaymentReceived, uuid.New(), func(f *PostingFacts) { f.AmountCents = 1000 })
	s.post(EventPaymentRefunded, uuid.New(), func(f *PostingFacts) { f.AmountCents = -300 })
	s.post(EventShipmentShipped, uuid.New(), func(f *PostingFacts) {
		f.TotalCents, f.ShippedSubtotalCents = 1000, 1000
		f.RefundedToDeferredCents = NetRoleAmount(s.entries, EventPaymentRefunded, RoleDeferredRevenue, PostingDebit)
	})
	empty := s.post(EventOrderCompleted, s.orderID, func(f *PostingFacts) {
		f.TotalCents, f.RefundsBeforeCompletionCents = 1000, 300
		f.RecognizedByShipmentsCents = NetRoleAmount(s.entries, EventShipmentShipped, RoleDeferredRevenue, PostingDebit)
	})
	assert.Nil(t, empty, "everything was recognized by the shipment")

	verdict := Audit(s.entries, AuditFacts{TotalCents: 1000, RefundsBeforeCompletionCents: 300, PositivePaymentsCents: 1000}, time.Now())
	assert.Empty(t, verdict.Issues)
}

func TestAudit_ReportsNamedIssues(t *testing.T) {
	s := newLedgerScenario(t)
	s.post(EventOrderOpened, s.orderID, func(f *PostingFacts) { f.TotalCents = 1000 })
	s.post(EventPaymentReceived, uuid.New(), func(f *PostingFacts) { f.AmountCents = 600 })

	checkedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	verdict := Audit(s.entries, AuditFacts{TotalCents: 1000, PositivePaymentsCents: 1000}, checkedAt)
	require.True(t, verdict.Exception())
	assert.Equal(t, []string{
		"receivable_unbalanced: debit=1000 credit=600",
		"deferred_revenue_unbalanced: debit=0 credit=1000",
		"revenue_mismatch: revenue=0 expected=1000",
		"merchant_mismatch: merchant=600 payments=1000",
	}, verdict.Issues)

	raw, err := verdict.Payload()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded["issues"], 4)
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["checked_at"])
}

func TestAudit_DeletedPaymentReversalNetsMerchant(t *testing.T) {
	s := newLedgerScenario(t)
	paymentID := uuid.New()
	received := s.post(EventPaymentReceived, paymentID, func(f *PostingFacts) { f.AmountCents = 500 })
	reversal, err := received.Reverse(ReversalKey(paymentID, received.ID, "v1"), time.Now())
	require.NoError(t, err)
	entries := append(s.entries, reversal)

	assert.Equal(t, int64(0), merchantNetDebits(entries))
	verdict := Audit(entries, AuditFacts{}, time.Now())
	assert.Empty(t, verdict.Issues)
}
