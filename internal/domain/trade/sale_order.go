package trade

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a wholesale sale order
type OrderStatus string

const (
	OrderStatusDraft            OrderStatus = "DRAFT"
	OrderStatusOpen             OrderStatus = "OPEN"
	OrderStatusPartiallyShipped OrderStatus = "PARTIALLY_SHIPPED"
	OrderStatusShipped          OrderStatus = "SHIPPED"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
)

// orderTransitions lists the transitions a caller may request directly.
// Open, PartiallyShipped and Shipped are also reached through shipment
// progress, which does not consult this table.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:   {OrderStatusOpen, OrderStatusCancelled},
	OrderStatusOpen:    {OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusCompleted},
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusOpen, OrderStatusPartiallyShipped,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo checks the direct transition table
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ValidateOrderTransition returns an invalid-transition error naming both states
func ValidateOrderTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return shared.NewInvalidTransitionError("sale order", from.String(), to.String())
	}
	return nil
}

// acceptsPayments lists the statuses in which payments and refunds may be recorded
func (s OrderStatus) acceptsPayments() bool {
	switch s {
	case OrderStatusOpen, OrderStatusPartiallyShipped, OrderStatusShipped, OrderStatusCompleted:
		return true
	}
	return false
}

// Customer holds the buyer details captured on the order
type Customer struct {
	Name            string
	Email           string
	Phone           string
	ShippingAddress string
}

// SaleOrderItem is a line on a sale order
type SaleOrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	LineNo          int
	SKU             string
	Description     string
	Quantity        decimal.Decimal
	UnitPriceCents  int64
	DiscountPercent decimal.Decimal
	TotalCents      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSaleOrderItem creates a validated line with its derived total
func NewSaleOrderItem(orderID uuid.UUID, draft ItemDraft) (*SaleOrderItem, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &SaleOrderItem{
		ID:              uuid.New(),
		OrderID:         orderID,
		SKU:             draft.SKU,
		Description:     draft.Description,
		Quantity:        draft.Quantity,
		UnitPriceCents:  draft.UnitPriceCents,
		DiscountPercent: draft.DiscountPercent,
		TotalCents:      LineTotal(draft.Quantity, draft.UnitPriceCents, draft.DiscountPercent),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (i *SaleOrderItem) sameContent(d ItemDraft) bool {
	return i.SKU == d.SKU &&
		i.Description == d.Description &&
		i.Quantity.Equal(d.Quantity) &&
		i.UnitPriceCents == d.UnitPriceCents &&
		i.DiscountPercent.Equal(d.DiscountPercent)
}

func (i *SaleOrderItem) apply(d ItemDraft) {
	i.SKU = d.SKU
	i.Description = d.Description
	i.Quantity = d.Quantity
	i.UnitPriceCents = d.UnitPriceCents
	i.DiscountPercent = d.DiscountPercent
	i.TotalCents = LineTotal(d.Quantity, d.UnitPriceCents, d.DiscountPercent)
	i.UpdatedAt = time.Now()
}

// ItemDraft is the desired state of one line in an item sync.
// A nil ID adds a new line.
type ItemDraft struct {
	ID              *uuid.UUID
	SKU             string
	Description     string
	Quantity        decimal.Decimal
	UnitPriceCents  int64
	DiscountPercent decimal.Decimal
}

func (d ItemDraft) validate() error {
	if strings.TrimSpace(d.Description) == "" && strings.TrimSpace(d.SKU) == "" {
		return shared.NewValidationError("description", "REQUIRED", "Item needs a SKU or a description")
	}
	return ValidateLine(d.Quantity, d.UnitPriceCents, d.DiscountPercent)
}

// ItemConstraints carries the per-item facts an item sync must respect.
type ItemConstraints struct {
	// Locked holds items attached to a Shipped shipment.
	Locked map[uuid.UUID]bool
	// Invoiced holds quantities allocated on non-archived invoices.
	Invoiced map[uuid.UUID]decimal.Decimal
}

// SaleOrder is the wholesale sale order aggregate root
type SaleOrder struct {
	shared.StoreAggregateRoot
	OrderNo      string
	Status       OrderStatus
	Customer     Customer
	PaymentTerms string
	Notes        string
	Items        []SaleOrderItem
	Totals
	DateCreated   time.Time
	DateCompleted *time.Time
	CompletedAt   *time.Time

	BookkeepingException        bool
	BookkeepingExceptionPayload json.RawMessage
	BookkeepingLastCheckedAt    *time.Time
}

// NewSaleOrder creates a draft order
func NewSaleOrder(storeID, userID uuid.UUID, orderNo string, customer Customer, paymentTerms string) (*SaleOrder, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("store_id", "INVALID_STORE", "Store ID cannot be empty")
	}
	if strings.TrimSpace(orderNo) == "" {
		return nil, shared.NewValidationError("order_no", "INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNo) > 50 {
		return nil, shared.NewValidationError("order_no", "INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}

	order := &SaleOrder{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID, userID),
		OrderNo:            orderNo,
		Status:             OrderStatusDraft,
		Customer:           customer,
		PaymentTerms:       paymentTerms,
		Items:              make([]SaleOrderItem, 0),
	}
	order.DateCreated = order.CreatedAt
	order.AddDomainEvent(NewSaleOrderCreatedEvent(order))
	return order, nil
}

// CanEditItems reports whether lines and header charges may change
func (o *SaleOrder) CanEditItems() bool {
	switch o.Status {
	case OrderStatusDraft, OrderStatusOpen, OrderStatusPartiallyShipped:
		return true
	}
	return false
}

// CanCreateInvoice reports whether invoices may be generated or created
func (o *SaleOrder) CanCreateInvoice() bool {
	return o.Status == OrderStatusOpen && len(o.Items) > 0
}

// CanCreateShipment reports whether the status admits new shipments
func (o *SaleOrder) CanCreateShipment() bool {
	return o.Status == OrderStatusOpen || o.Status == OrderStatusPartiallyShipped
}

// AcceptsPayments reports whether payments and refunds may be recorded
func (o *SaleOrder) AcceptsPayments() bool {
	return o.Status.acceptsPayments()
}

// FindItem returns the item with the given id
func (o *SaleOrder) FindItem(itemID uuid.UUID) (*SaleOrderItem, bool) {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx], true
		}
	}
	return nil, false
}

// UpdateHeader replaces customer details, terms, notes and charges
func (o *SaleOrder) UpdateHeader(customer Customer, paymentTerms, notes string, shippingCents, discountCents int64) error {
	if !o.CanEditItems() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit order in %s status", o.Status))
	}
	if o.Status != OrderStatusDraft && strings.TrimSpace(customer.Name) == "" {
		return shared.NewValidationError("customer_name", "REQUIRED", "Customer name is required once the order is open")
	}
	totals, err := ComputeTotals(o.SubtotalCents, shippingCents, discountCents)
	if err != nil {
		return err
	}
	o.Customer = customer
	o.PaymentTerms = paymentTerms
	o.Notes = notes
	o.Totals = totals
	o.Touch()
	return nil
}

// SyncItems replaces the item set with drafts, in order, renumbering
// lines densely from 1. It returns the ids of removed items.
// Locked items must be resubmitted unchanged and no item may drop
// below the quantity already invoiced.
func (o *SaleOrder) SyncItems(drafts []ItemDraft, constraints ItemConstraints) ([]uuid.UUID, error) {
	if !o.CanEditItems() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit items of order in %s status", o.Status))
	}

	existing := make(map[uuid.UUID]SaleOrderItem, len(o.Items))
	for _, item := range o.Items {
		existing[item.ID] = item
	}

	seen := make(map[uuid.UUID]bool, len(drafts))
	next := make([]SaleOrderItem, 0, len(drafts))
	for idx, draft := range drafts {
		if err := draft.validate(); err != nil {
			return nil, withItemIndex(err, idx)
		}
		if draft.ID == nil {
			item, err := NewSaleOrderItem(o.ID, draft)
			if err != nil {
				return nil, withItemIndex(err, idx)
			}
			next = append(next, *item)
			continue
		}

		id := *draft.ID
		item, ok := existing[id]
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].id", idx), "ITEM_NOT_FOUND", "Item does not belong to this order")
		}
		if seen[id] {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].id", idx), "DUPLICATE_ITEM", "Item listed more than once")
		}
		seen[id] = true

		if constraints.Locked[id] && !item.sameContent(draft) {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d]", idx), "ITEM_LOCKED",
				fmt.Sprintf("Item on line %d has shipped and cannot be modified", item.LineNo))
		}
		if invoiced, ok := constraints.Invoiced[id]; ok && draft.Quantity.LessThan(invoiced) {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].quantity", idx), "QUANTITY_BELOW_INVOICED",
				fmt.Sprintf("Quantity cannot drop below the %s already invoiced", invoiced.String()))
		}
		if !item.sameContent(draft) {
			item.apply(draft)
		}
		next = append(next, item)
	}

	removed := make([]uuid.UUID, 0)
	for _, item := range o.Items {
		if seen[item.ID] {
			continue
		}
		if constraints.Locked[item.ID] {
			return nil, shared.NewValidationError("items", "ITEM_LOCKED",
				fmt.Sprintf("Item on line %d has shipped and cannot be removed", item.LineNo))
		}
		if invoiced, ok := constraints.Invoiced[item.ID]; ok && invoiced.IsPositive() {
			return nil, shared.NewValidationError("items", "ITEM_INVOICED",
				fmt.Sprintf("Item on line %d is on an active invoice and cannot be removed", item.LineNo))
		}
		removed = append(removed, item.ID)
	}

	lineTotals := make([]int64, len(next))
	for idx := range next {
		next[idx].LineNo = idx + 1
		lineTotals[idx] = next[idx].TotalCents
	}
	totals, err := ComputeTotals(SumLineTotals(lineTotals...), o.ShippingCents, o.DiscountCents)
	if err != nil {
		return nil, err
	}

	o.Items = next
	o.Totals = totals
	o.Touch()
	return removed, nil
}

func withItemIndex(err error, idx int) error {
	de, ok := err.(*shared.DomainError)
	if !ok || de.Field == "" {
		return err
	}
	copied := *de
	copied.Field = fmt.Sprintf("items[%d].%s", idx, de.Field)
	return &copied
}

// Open moves a draft order to Open
func (o *SaleOrder) Open() error {
	if err := ValidateOrderTransition(o.Status, OrderStatusOpen); err != nil {
		return err
	}
	if strings.TrimSpace(o.Customer.Name) == "" {
		return shared.NewValidationError("customer_name", "REQUIRED", "Customer name is required to open the order")
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError("items", "NO_ITEMS", "Cannot open an order without items")
	}
	if err := o.Totals.Validate(); err != nil {
		return err
	}
	o.setStatus(OrderStatusOpen)
	return nil
}

// Cancel moves a Draft or Open order to Cancelled.
// The caller archives invoices and open shipments in the same unit of work.
func (o *SaleOrder) Cancel(hasShippedShipment bool) error {
	if err := ValidateOrderTransition(o.Status, OrderStatusCancelled); err != nil {
		return err
	}
	if hasShippedShipment {
		return shared.NewValidationError("status", "HAS_SHIPPED_SHIPMENT", "Cannot cancel an order with a shipped shipment")
	}
	o.setStatus(OrderStatusCancelled)
	return nil
}

// Complete moves a Shipped order to Completed once every active invoice is paid.
// DateCompleted is the calendar date of now in loc.
func (o *SaleOrder) Complete(invoices []InvoicePayments, now time.Time, loc *time.Location) error {
	if err := ValidateOrderTransition(o.Status, OrderStatusCompleted); err != nil {
		return err
	}
	active := ActiveInvoices(invoices)
	if len(active) == 0 {
		return shared.NewValidationError("invoices", "NO_ACTIVE_INVOICE", "Cannot complete an order without an active invoice")
	}
	for _, inv := range active {
		if inv.PaymentStatus() != PaymentStatusPaid {
			return shared.NewValidationError("invoices", "UNPAID_INVOICE",
				fmt.Sprintf("Invoice %s is %s; all active invoices must be paid", inv.Code, inv.PaymentStatus()))
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	o.DateCompleted = &date
	o.CompletedAt = &now
	o.setStatus(OrderStatusCompleted)
	return nil
}

// ApplyShipmentProgress recomputes Open/PartiallyShipped/Shipped from the
// number of order items attached to Shipped shipments. It reports whether
// the status changed. Cancelled and Completed orders are left alone.
func (o *SaleOrder) ApplyShipmentProgress(shippedItems int) bool {
	switch o.Status {
	case OrderStatusOpen, OrderStatusPartiallyShipped, OrderStatusShipped:
	default:
		return false
	}

	var target OrderStatus
	switch {
	case shippedItems <= 0:
		target = OrderStatusOpen
	case shippedItems < len(o.Items):
		target = OrderStatusPartiallyShipped
	default:
		target = OrderStatusShipped
	}
	if target == o.Status {
		return false
	}
	o.setStatus(target)
	return true
}

// RecordBookkeepingVerdict stores the audit outcome
func (o *SaleOrder) RecordBookkeepingVerdict(exception bool, payload json.RawMessage, checkedAt time.Time) {
	o.BookkeepingException = exception
	if exception {
		o.BookkeepingExceptionPayload = payload
	} else {
		o.BookkeepingExceptionPayload = nil
	}
	o.BookkeepingLastCheckedAt = &checkedAt
	o.Touch()
}

func (o *SaleOrder) setStatus(to OrderStatus) {
	from := o.Status
	o.Status = to
	o.Touch()
	o.AddDomainEvent(NewSaleOrderStatusChangedEvent(o, from, to))
}

// ItemIDs returns the ids of all items
func (o *SaleOrder) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.Items))
	for idx, item := range o.Items {
		ids[idx] = item.ID
	}
	return ids
}

// Ensure SaleOrder implements shared.AggregateRoot
var _ shared.AggregateRoot = (*SaleOrder)(nil)
