package bookkeeping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostingService posts sale order events to the journal. Every post is
// idempotent: a replay returns the entry already stored under its key.
// It always runs on the journal of the caller's transaction.
type PostingService struct {
	chart      bookkeeping.ChartOfAccounts
	versionTag string
	logger     *zap.Logger
	metrics    *telemetry.WholesaleMetrics
	now        func() time.Time
}

// NewPostingService creates a new PostingService
func NewPostingService(chart bookkeeping.ChartOfAccounts, versionTag string, log *zap.Logger) *PostingService {
	if log == nil {
		log = zap.NewNop()
	}
	if versionTag == "" {
		versionTag = bookkeeping.DefaultVersionTag
	}
	return &PostingService{
		chart:      chart,
		versionTag: versionTag,
		logger:     log,
		now:        time.Now,
	}
}

// SetMetrics sets the metrics collector
func (s *PostingService) SetMetrics(m *telemetry.WholesaleMetrics) {
	s.metrics = m
}

// VersionTag returns the idempotency key version tag
func (s *PostingService) VersionTag() string {
	return s.versionTag
}

// Post builds and stores the entry for facts unless one already exists.
// It returns nil when every line of the entry would be zero.
func (s *PostingService) Post(ctx context.Context, journal bookkeeping.JournalRepository, facts bookkeeping.PostingFacts) (*bookkeeping.JournalEntry, error) {
	factory := bookkeeping.NewEntryFactory(s.chart, s.versionTag)
	key := factory.Key(facts)

	existing, err := journal.FindByIdempotencyKey(ctx, key)
	if err == nil {
		logger.WithTraceContext(ctx, s.logger).Debug("journal entry replayed", zap.String("idempotency_key", key))
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("lookup journal entry %s: %w", key, err)
	}

	entry, err := factory.Build(ctx, facts, s.now())
	if err != nil || entry == nil {
		return nil, err
	}
	return s.create(ctx, journal, entry)
}

func (s *PostingService) create(ctx context.Context, journal bookkeeping.JournalRepository, entry *bookkeeping.JournalEntry) (*bookkeeping.JournalEntry, error) {
	if err := journal.Create(ctx, entry); err != nil {
		if errors.Is(err, shared.ErrUniqueViolation) {
			return journal.FindByIdempotencyKey(ctx, entry.IdempotencyKey)
		}
		return nil, fmt.Errorf("create journal entry %s: %w", entry.IdempotencyKey, err)
	}

	logger.WithTraceContext(ctx, s.logger).Info("journal entry posted",
		zap.String("event", string(entry.EventType)),
		zap.String("order_id", entry.AggregateID.String()),
		zap.String("idempotency_key", entry.IdempotencyKey),
		zap.Int64("amount_cents", entry.DebitCents()),
	)
	if s.metrics != nil {
		s.metrics.RecordJournalEntry(ctx, entry.StoreID, string(entry.EventType))
	}
	return entry, nil
}

func orderSource(order *trade.SaleOrder, event bookkeeping.EventType, sourceType string, sourceID uuid.UUID) bookkeeping.EntrySource {
	return bookkeeping.EntrySource{
		StoreID:       order.StoreID,
		AggregateType: bookkeeping.AggregateSaleOrder,
		AggregateID:   order.ID,
		EventType:     event,
		SourceType:    sourceType,
		SourceID:      sourceID,
	}
}

// PostOrderOpened records receivable against deferred revenue for the order total
func (s *PostingService) PostOrderOpened(ctx context.Context, journal bookkeeping.JournalRepository, order *trade.SaleOrder) (*bookkeeping.JournalEntry, error) {
	return s.Post(ctx, journal, bookkeeping.PostingFacts{
		Source:     orderSource(order, bookkeeping.EventOrderOpened, bookkeeping.SourceSaleOrder, order.ID),
		TotalCents: order.TotalCents,
	})
}

// PostOrderAdjusted books the difference between the order total and the
// receivable already booked for it. version is the order version the edit
// was applied to. Orders that were never opened post nothing.
func (s *PostingService) PostOrderAdjusted(ctx context.Context, journal bookkeeping.JournalRepository, order *trade.SaleOrder, version int) (*bookkeeping.JournalEntry, error) {
	entries, err := journal.FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load order journal: %w", err)
	}
	if !hasEvent(entries, bookkeeping.EventOrderOpened) {
		return nil, nil
	}
	return s.Post(ctx, journal, bookkeeping.PostingFacts{
		Source:          orderSource(order, bookkeeping.EventOrderAdjusted, bookkeeping.SourceSaleOrder, order.ID),
		TotalCents:      order.TotalCents,
		OrderVersion:    version,
		AdjustmentCents: max(0, order.TotalCents) - bookkeeping.BookedReceivableCents(entries),
	})
}

func hasEvent(entries []*bookkeeping.JournalEntry, event bookkeeping.EventType) bool {
	for _, e := range entries {
		if e.EventType == event {
			return true
		}
	}
	return false
}

// PostPayment records a payment or, for negative amounts, a refund
func (s *PostingService) PostPayment(ctx context.Context, journal bookkeeping.JournalRepository, order *trade.SaleOrder, payment *trade.Payment) (*bookkeeping.JournalEntry, error) {
	event := bookkeeping.EventPaymentReceived
	if payment.IsRefund() {
		event = bookkeeping.EventPaymentRefunded
	}
	return s.Post(ctx, journal, bookkeeping.PostingFacts{
		Source:         orderSource(order, event, bookkeeping.SourcePayment, payment.ID),
		AmountCents:    payment.AmountCents,
		PaymentMethod:  payment.Method.String(),
		OrderCompleted: order.Status == trade.OrderStatusCompleted,
	})
}

// PostShipmentShipped recognizes the revenue of a shipped shipment.
// shipments must include the shipment itself in Shipped status.
func (s *PostingService) PostShipmentShipped(ctx context.Context, journal bookkeeping.JournalRepository, order *trade.SaleOrder, shipment *trade.Shipment, shipments []*trade.Shipment) (*bookkeeping.JournalEntry, error) {
	entries, err := journal.FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load order journal: %w", err)
	}
	return s.Post(ctx, journal, bookkeeping.PostingFacts{
		Source:               orderSource(order, bookkeeping.EventShipmentShipped, bookkeeping.SourceShipment, shipment.ID),
		TotalCents:           order.TotalCents,
		ShippedSubtotalCents: trade.ShippedSubtotalCents(order, shipments),
		RefundedToDeferredCents: bookkeeping.NetRoleAmount(entries, bookkeeping.EventPaymentRefunded,
			bookkeeping.RoleDeferredRevenue, bookkeeping.PostingDebit),
		RecognizedByShipmentsCents: bookkeeping.NetRoleAmount(entries, bookkeeping.EventShipmentShipped,
			bookkeeping.RoleDeferredRevenue, bookkeeping.PostingDebit),
	})
}

// PostOrderCompleted moves the remaining deferred revenue to revenue
func (s *PostingService) PostOrderCompleted(ctx context.Context, journal bookkeeping.JournalRepository, order *trade.SaleOrder, payments []*trade.Payment) (*bookkeeping.JournalEntry, error) {
	entries, err := journal.FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load order journal: %w", err)
	}
	return s.Post(ctx, journal, bookkeeping.PostingFacts{
		Source:                       orderSource(order, bookkeeping.EventOrderCompleted, bookkeeping.SourceSaleOrder, order.ID),
		TotalCents:                   order.TotalCents,
		ShippingCents:                order.ShippingCents,
		DiscountCents:                order.DiscountCents,
		RefundsBeforeCompletionCents: trade.RefundsBeforeCents(payments, order.CompletedAt),
		RecognizedByShipmentsCents: bookkeeping.NetRoleAmount(entries, bookkeeping.EventShipmentShipped,
			bookkeeping.RoleDeferredRevenue, bookkeeping.PostingDebit),
	})
}

// ReversePayment reverses every entry of a deleted payment that has not
// been reversed yet. It runs in the same transaction as the soft delete,
// so no later read can see the payment gone and its postings still live.
func (s *PostingService) ReversePayment(ctx context.Context, journal bookkeeping.JournalRepository, payment *trade.Payment) ([]*bookkeeping.JournalEntry, error) {
	entries, err := journal.FindBySource(ctx, bookkeeping.SourcePayment, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("load payment journal: %w", err)
	}

	var reversals []*bookkeeping.JournalEntry
	for _, original := range bookkeeping.UnreversedEntries(entries) {
		key := bookkeeping.ReversalKey(payment.ID, original.ID, s.versionTag)
		reversal, err := original.Reverse(key, s.now())
		if err != nil {
			return nil, err
		}
		stored, err := s.create(ctx, journal, reversal)
		if err != nil {
			return nil, err
		}
		reversals = append(reversals, stored)
	}
	return reversals, nil
}
