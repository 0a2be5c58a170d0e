package persistence

import (
	"bytes"
	"context"
	"slices"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLocker takes SELECT ... FOR UPDATE locks inside the caller's transaction.
// Tiers are locked in a fixed order (order, invoices, shipments, items,
// payments) and ids within a tier ascending, so two units of work touching
// the same rows always queue instead of deadlocking.
type GormLocker struct {
	db *gorm.DB
}

// NewGormLocker creates a locker bound to a transaction handle
func NewGormLocker(db *gorm.DB) *GormLocker {
	return &GormLocker{db: db}
}

type lockTier struct {
	table    string
	resource string
	ids      []uuid.UUID
}

// Acquire locks every row named in plan. A row that does not exist
// returns a not found error.
func (l *GormLocker) Acquire(ctx context.Context, plan trade.LockPlan) error {
	if plan.IsEmpty() {
		return nil
	}
	var orderIDs []uuid.UUID
	if plan.OrderID != uuid.Nil {
		orderIDs = []uuid.UUID{plan.OrderID}
	}
	tiers := []lockTier{
		{table: "sale_orders", resource: "sale order", ids: orderIDs},
		{table: "sale_order_invoices", resource: "invoice", ids: plan.InvoiceIDs},
		{table: "sale_order_shipments", resource: "shipment", ids: plan.ShipmentIDs},
		{table: "sale_order_items", resource: "sale order item", ids: plan.ItemIDs},
		{table: "sale_order_payments", resource: "payment", ids: plan.PaymentIDs},
	}
	for _, tier := range tiers {
		if err := l.lockTier(ctx, tier); err != nil {
			return err
		}
	}
	return nil
}

func (l *GormLocker) lockTier(ctx context.Context, tier lockTier) error {
	ids := sortedUnique(tier.ids)
	if len(ids) == 0 {
		return nil
	}
	var locked []uuid.UUID
	if err := l.db.WithContext(ctx).
		Table(tier.table).
		Where("id IN ?", ids).
		Order("id").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Pluck("id", &locked).Error; err != nil {
		return translateError(err)
	}
	if len(locked) != len(ids) {
		return shared.NewNotFoundError(tier.resource)
	}
	return nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != uuid.Nil {
			out = append(out, id)
		}
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}

// Ensure GormLocker implements trade.Locker
var _ trade.Locker = (*GormLocker)(nil)
