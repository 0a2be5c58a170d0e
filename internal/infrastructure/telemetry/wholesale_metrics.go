package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// WholesaleMetrics records business counters for the sale order lifecycle:
// status transitions, journal postings, rejected payments, bookkeeping
// exceptions and document numbering retries.
//
// A nil *WholesaleMetrics is valid and records nothing.
type WholesaleMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	transitionTotal     *Counter
	journalEntryTotal   *Counter
	paymentRejectTotal  *Counter
	bookkeepingExcTotal *Counter
	numberingRetryTotal *Counter
}

// WholesaleMetricsConfig holds configuration for wholesale metrics.
type WholesaleMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewWholesaleMetrics creates a new WholesaleMetrics instance.
func NewWholesaleMetrics(cfg WholesaleMetricsConfig) (*WholesaleMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	wm := &WholesaleMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	wm.transitionTotal, err = NewCounter(
		cfg.Meter,
		"wholesale_status_transitions_total",
		"Total number of sale order and shipment status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	wm.journalEntryTotal, err = NewCounter(
		cfg.Meter,
		"wholesale_journal_entries_total",
		"Total number of journal entries posted",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	wm.paymentRejectTotal, err = NewCounter(
		cfg.Meter,
		"wholesale_payment_rejections_total",
		"Total number of payment amounts rejected by the validator",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	wm.bookkeepingExcTotal, err = NewCounter(
		cfg.Meter,
		"wholesale_bookkeeping_exceptions_total",
		"Total number of completed orders flagged by the bookkeeping audit",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	wm.numberingRetryTotal, err = NewCounter(
		cfg.Meter,
		"wholesale_numbering_retries_total",
		"Total number of document number collisions that were retried",
		"{retries}",
	)
	if err != nil {
		return nil, err
	}

	return wm, nil
}

// RecordTransition counts a status change of a sale order or shipment.
func (wm *WholesaleMetrics) RecordTransition(ctx context.Context, storeID uuid.UUID, aggregate, from, to string) {
	if wm == nil {
		return
	}
	wm.transitionTotal.Inc(ctx, storeAttrs(storeID,
		AttrAggregate.String(aggregate),
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)...)
}

// RecordJournalEntry counts a newly inserted journal entry.
// Idempotent replays are not counted.
func (wm *WholesaleMetrics) RecordJournalEntry(ctx context.Context, storeID uuid.UUID, event string) {
	if wm == nil {
		return
	}
	wm.journalEntryTotal.Inc(ctx, storeAttrs(storeID, AttrJournalEvent.String(event))...)
}

// RecordPaymentRejection counts a candidate amount the validator refused.
func (wm *WholesaleMetrics) RecordPaymentRejection(ctx context.Context, storeID uuid.UUID, reason string) {
	if wm == nil {
		return
	}
	wm.paymentRejectTotal.Inc(ctx, storeAttrs(storeID, AttrRejection.String(reason))...)
}

// RecordBookkeepingException counts an order the audit flagged.
func (wm *WholesaleMetrics) RecordBookkeepingException(ctx context.Context, storeID uuid.UUID) {
	if wm == nil {
		return
	}
	wm.bookkeepingExcTotal.Inc(ctx, storeAttrs(storeID)...)
}

// RecordNumberingRetry counts a unique-violation retry of operation.
func (wm *WholesaleMetrics) RecordNumberingRetry(ctx context.Context, operation string) {
	if wm == nil {
		return
	}
	wm.numberingRetryTotal.Inc(ctx, AttrOperation.String(operation))
	wm.logger.Debug("Document numbering retry", zap.String("operation", operation))
}

// storeAttrs builds the store attribute set used by store-scoped counters.
func storeAttrs(storeID uuid.UUID, extra ...attribute.KeyValue) []attribute.KeyValue {
	return append([]attribute.KeyValue{AttrStoreID.String(storeID.String())}, extra...)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewWholesaleMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
