package trade

import (
	"context"
	"fmt"
	"slices"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
)

// lockScope selects the child rows lockOrderTree loads and locks
type lockScope struct {
	Invoices  bool
	Shipments bool
	Payments  bool
	// AllItems locks every order item; Items locks just the listed ones
	AllItems bool
	Items    []uuid.UUID
}

// orderTree is an order with the children its unit of work holds locked
type orderTree struct {
	Order     *trade.SaleOrder
	Invoices  []*trade.Invoice
	Shipments []*trade.Shipment
	Payments  []*trade.Payment
}

// lockOrderTree is the only place mutations take row locks. The order row
// is locked first, then the order is read, then the requested child tiers
// are locked in one plan. Every writer locks the order first, so children
// read after it cannot change before commit.
func lockOrderTree(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID, scope lockScope) (*orderTree, error) {
	locker := repos.Locker()
	if err := locker.Acquire(ctx, trade.LockPlan{OrderID: orderID}); err != nil {
		return nil, fmt.Errorf("lock sale order: %w", err)
	}
	order, err := repos.SaleOrders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tree := &orderTree{Order: order}

	var plan trade.LockPlan
	if scope.Invoices {
		if tree.Invoices, err = repos.Invoices().FindByOrder(ctx, orderID); err != nil {
			return nil, err
		}
		for _, inv := range tree.Invoices {
			plan.InvoiceIDs = append(plan.InvoiceIDs, inv.ID)
		}
	}
	if scope.Shipments {
		if tree.Shipments, err = repos.Shipments().FindByOrder(ctx, orderID); err != nil {
			return nil, err
		}
		for _, s := range tree.Shipments {
			plan.ShipmentIDs = append(plan.ShipmentIDs, s.ID)
		}
	}
	if scope.AllItems {
		plan.ItemIDs = order.ItemIDs()
	} else {
		plan.ItemIDs = orderItemsOnly(order, scope.Items)
	}
	if scope.Payments {
		if tree.Payments, err = repos.Payments().FindByOrder(ctx, orderID); err != nil {
			return nil, err
		}
		for _, p := range tree.Payments {
			plan.PaymentIDs = append(plan.PaymentIDs, p.ID)
		}
	}

	if plan.IsEmpty() {
		return tree, nil
	}
	if err := locker.Acquire(ctx, plan); err != nil {
		return nil, fmt.Errorf("lock sale order children: %w", err)
	}
	return tree, nil
}

// orderItemsOnly drops ids that are not items of the order, and duplicates.
// Validation reports foreign ids; they are never locked.
func orderItemsOnly(order *trade.SaleOrder, ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := order.FindItem(id); ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (t *orderTree) invoice(id uuid.UUID) (*trade.Invoice, bool) {
	for _, inv := range t.Invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return nil, false
}

func (t *orderTree) shipment(id uuid.UUID) (*trade.Shipment, bool) {
	for _, s := range t.Shipments {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

func (t *orderTree) payment(id uuid.UUID) (*trade.Payment, bool) {
	for _, p := range t.Payments {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// netPaid is the invoice's live net paid amount
func (t *orderTree) netPaid(inv *trade.Invoice) int64 {
	return trade.NewInvoicePayments(inv, t.Payments).NetPaidCents()
}
