package bookkeeping

import (
	"context"
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

// AuditService checks an order's ledger and records the verdict on the order
type AuditService struct {
	scope   TransactionScope
	reads   TransactionalRepositories
	logger  *zap.Logger
	metrics *telemetry.WholesaleMetrics
	now     func() time.Time
}

// NewAuditService creates a new AuditService. reads serves the unlocked
// existence check made before any transaction starts.
func NewAuditService(scope TransactionScope, reads TransactionalRepositories, log *zap.Logger) *AuditService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditService{scope: scope, reads: reads, logger: log, now: time.Now}
}

// SetMetrics sets the metrics collector
func (s *AuditService) SetMetrics(m *telemetry.WholesaleMetrics) {
	s.metrics = m
}

// Verify audits order against its journal and writes the verdict onto
// order. The caller persists the order in its own transaction.
func (s *AuditService) Verify(ctx context.Context, journal bookkeeping.JournalRepository, order *trade.SaleOrder, payments []*trade.Payment) (bookkeeping.AuditVerdict, error) {
	entries, err := journal.FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, order.ID)
	if err != nil {
		return bookkeeping.AuditVerdict{}, fmt.Errorf("load order journal: %w", err)
	}

	verdict := bookkeeping.Audit(entries, bookkeeping.AuditFacts{
		TotalCents:                   order.TotalCents,
		RefundsBeforeCompletionCents: trade.RefundsBeforeCents(payments, order.CompletedAt),
		PositivePaymentsCents:        trade.PositivePaymentsCents(payments),
	}, s.now())

	payload, err := verdict.Payload()
	if err != nil {
		return bookkeeping.AuditVerdict{}, fmt.Errorf("encode audit verdict: %w", err)
	}
	order.RecordBookkeepingVerdict(verdict.Exception(), payload, verdict.CheckedAt)

	log := logger.WithTraceContext(ctx, s.logger).With(
		zap.String("order_id", order.ID.String()),
		zap.Int("entries", len(entries)),
	)
	if verdict.Exception() {
		log.Warn("bookkeeping exception", zap.Strings("issues", verdict.Issues))
		if s.metrics != nil {
			s.metrics.RecordBookkeepingException(ctx, order.StoreID)
		}
	} else {
		log.Info("bookkeeping verified")
	}
	return verdict, nil
}

// ReconcileOrder re-runs the audit under the order lock and saves the
// verdict. Only completed orders can be reconciled; before completion the
// ledger still holds deferred revenue.
func (s *AuditService) ReconcileOrder(ctx context.Context, storeID, orderID uuid.UUID) (bookkeeping.AuditVerdict, error) {
	current, err := s.reads.SaleOrders().FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return bookkeeping.AuditVerdict{}, err
	}
	if current.Status != trade.OrderStatusCompleted {
		return bookkeeping.AuditVerdict{}, shared.NewValidationError("status", "ORDER_NOT_COMPLETED",
			fmt.Sprintf("Sale order %s is %s; only completed orders can be reconciled", current.OrderNo, current.Status))
	}

	var verdict bookkeeping.AuditVerdict
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Locker().Acquire(ctx, trade.LockPlan{OrderID: orderID}); err != nil {
			return err
		}
		order, err := repos.SaleOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		payments, err := repos.Payments().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		verdict, err = s.Verify(ctx, repos.Journal(), order, payments)
		if err != nil {
			return err
		}
		return repos.SaleOrders().Update(ctx, order)
	})
	if err != nil {
		return bookkeeping.AuditVerdict{}, err
	}
	return verdict, nil
}
