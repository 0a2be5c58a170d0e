package trade

import (
	"context"

	"github.com/google/uuid"
)

// SaleOrderRepository defines persistence for the sale order header and items
type SaleOrderRepository interface {
	// FindByIDForStore loads an order with its items, scoped to the owning store.
	// A foreign store's order returns shared.ErrNotFound.
	FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*SaleOrder, error)

	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*SaleOrder, error)

	// Create inserts a new order with its items
	Create(ctx context.Context, order *SaleOrder) error

	// Update saves header fields with an optimistic version check
	Update(ctx context.Context, order *SaleOrder) error

	// SyncItems persists order.Items and deletes removed ids.
	// Line numbers are rewritten in two phases so reordering never trips
	// the (order_id, line_no) unique index.
	SyncItems(ctx context.Context, order *SaleOrder, removed []uuid.UUID) error
}

// InvoiceRepository defines persistence for invoices and their items
type InvoiceRepository interface {
	// FindByIDForOrder loads a non-deleted invoice of the order
	FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*Invoice, error)

	// FindByOrder loads all non-deleted invoices of the order, by sequence
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Invoice, error)

	// MaxSequence returns the highest sequence used by the order,
	// soft-deleted invoices included. Zero means none.
	MaxSequence(ctx context.Context, orderID uuid.UUID) (int, error)

	// Create inserts an invoice with its items
	Create(ctx context.Context, invoice *Invoice) error

	// Update saves status, payment status and charges
	Update(ctx context.Context, invoice *Invoice) error
}

// ShipmentRepository defines persistence for shipments and their items
type ShipmentRepository interface {
	// FindByIDForOrder loads a shipment of the order
	FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*Shipment, error)

	// FindByOrder loads all shipments of the order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Shipment, error)

	// Create inserts a shipment with its items
	Create(ctx context.Context, shipment *Shipment) error

	// Update saves status and details and replaces the item set
	Update(ctx context.Context, shipment *Shipment) error
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	// FindByIDForOrder loads a payment of the order, deleted or not
	FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*Payment, error)

	// FindByOrder loads all payments of the order, including soft-deleted ones
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*Payment, error)

	// Create inserts a payment
	Create(ctx context.Context, payment *Payment) error

	// Update saves the soft-delete marker and note
	Update(ctx context.Context, payment *Payment) error
}

// LockPlan lists the rows a unit of work locks. Locker acquires them
// tier by tier: order, invoices, shipments, items, payments. Within a
// tier ids are locked in ascending order.
type LockPlan struct {
	OrderID     uuid.UUID
	InvoiceIDs  []uuid.UUID
	ShipmentIDs []uuid.UUID
	ItemIDs     []uuid.UUID
	PaymentIDs  []uuid.UUID
}

// IsEmpty reports whether the plan locks nothing
func (p LockPlan) IsEmpty() bool {
	return p.OrderID == uuid.Nil && len(p.InvoiceIDs) == 0 && len(p.ShipmentIDs) == 0 &&
		len(p.ItemIDs) == 0 && len(p.PaymentIDs) == 0
}

// Locker takes exclusive row locks held until the transaction ends
type Locker interface {
	Acquire(ctx context.Context, plan LockPlan) error
}
