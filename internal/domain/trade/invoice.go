package trade

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusActive   InvoiceStatus = "ACTIVE"
	InvoiceStatusArchived InvoiceStatus = "ARCHIVED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusActive || s == InvoiceStatusArchived
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// PaymentStatus is derived from an invoice's non-deleted payments
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DerivePaymentStatus maps net paid against the invoice total
func DerivePaymentStatus(totalCents, netPaidCents int64) PaymentStatus {
	switch {
	case netPaidCents >= totalCents:
		return PaymentStatusPaid
	case netPaidCents > 0:
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusUnpaid
	}
}

// InvoiceCode renders the display code for an invoice sequence
func InvoiceCode(orderNo string, sequence int) string {
	return fmt.Sprintf("%s-INV-%02d", orderNo, sequence)
}

// InvoiceItem is one allocation of an order item onto an invoice
type InvoiceItem struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	OrderItemID     uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPriceCents  int64
	DiscountPercent decimal.Decimal
	TotalCents      int64
}

// Invoice is a snapshot of order items billed to the customer
type Invoice struct {
	shared.BaseEntity
	OrderID       uuid.UUID
	StoreID       uuid.UUID
	Sequence      int
	Code          string
	Status        InvoiceStatus
	PaymentStatus PaymentStatus
	Totals
	Items      []InvoiceItem
	ArchivedAt *time.Time
	DeletedAt  *time.Time
}

// InvoiceLineRequest asks for quantity of an order item on a new invoice
type InvoiceLineRequest struct {
	OrderItemID uuid.UUID
	Quantity    decimal.Decimal
}

// FullInvoiceRequest requests every order item at its ordered quantity
func FullInvoiceRequest(order *SaleOrder) []InvoiceLineRequest {
	lines := make([]InvoiceLineRequest, len(order.Items))
	for idx, item := range order.Items {
		lines[idx] = InvoiceLineRequest{OrderItemID: item.ID, Quantity: item.Quantity}
	}
	return lines
}

// AllocateInvoiceLines checks requested quantities against what remains
// uninvoiced and builds the invoice lines. Requests for the same item are
// summed before the check. invoiced holds quantities already allocated on
// non-archived invoices.
func AllocateInvoiceLines(order *SaleOrder, invoiced map[uuid.UUID]decimal.Decimal, requests []InvoiceLineRequest) ([]InvoiceItem, error) {
	if len(requests) == 0 {
		return nil, shared.NewValidationError("items", "NO_ITEMS", "Invoice needs at least one item")
	}

	requested := make(map[uuid.UUID]decimal.Decimal)
	itemOrder := make([]uuid.UUID, 0, len(requests))
	for idx, req := range requests {
		if !req.Quantity.IsPositive() {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].quantity", idx), "INVALID_QUANTITY", "Quantity must be positive")
		}
		if _, ok := order.FindItem(req.OrderItemID); !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].id", idx), "ITEM_NOT_FOUND", "Item does not belong to this order")
		}
		if _, ok := requested[req.OrderItemID]; !ok {
			itemOrder = append(itemOrder, req.OrderItemID)
			requested[req.OrderItemID] = decimal.Zero
		}
		requested[req.OrderItemID] = requested[req.OrderItemID].Add(req.Quantity)
	}

	lines := make([]InvoiceItem, 0, len(requested))
	for _, itemID := range itemOrder {
		item, _ := order.FindItem(itemID)
		already := invoiced[itemID]
		available := item.Quantity.Sub(already)
		want := requested[itemID]
		if !available.IsPositive() {
			return nil, shared.NewValidationError("items", "FULLY_INVOICED",
				fmt.Sprintf("Line %d is already fully invoiced", item.LineNo))
		}
		if want.GreaterThan(available) {
			return nil, shared.NewValidationError("items", "EXCEEDS_AVAILABLE",
				fmt.Sprintf("Line %d: requested %s but only %s remains uninvoiced", item.LineNo, want.String(), available.String()))
		}
		lines = append(lines, InvoiceItem{
			ID:              uuid.New(),
			OrderItemID:     item.ID,
			Description:     item.Description,
			Quantity:        want,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
			TotalCents:      LineTotal(want, item.UnitPriceCents, item.DiscountPercent),
		})
	}
	return lines, nil
}

// CheckInvoiceable requires an Open order with items and valid totals
func CheckInvoiceable(order *SaleOrder) error {
	if !order.CanCreateInvoice() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot invoice order in %s status with %d items", order.Status, len(order.Items)))
	}
	return order.Totals.Validate()
}

// NewInvoice creates an active invoice with the given lines and charges.
// The order's own totals are re-validated before the snapshot is taken.
func NewInvoice(order *SaleOrder, sequence int, lines []InvoiceItem, shippingCents, discountCents int64) (*Invoice, error) {
	if err := CheckInvoiceable(order); err != nil {
		return nil, err
	}
	if sequence < 1 {
		return nil, shared.NewValidationError("sequence", "INVALID_SEQUENCE", "Invoice sequence must start at 1")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("items", "NO_ITEMS", "Invoice needs at least one item")
	}

	inv := &Invoice{
		BaseEntity:    shared.NewBaseEntity(),
		OrderID:       order.ID,
		StoreID:       order.StoreID,
		Sequence:      sequence,
		Code:          InvoiceCode(order.OrderNo, sequence),
		Status:        InvoiceStatusActive,
		PaymentStatus: PaymentStatusUnpaid,
		Items:         lines,
	}
	for idx := range inv.Items {
		inv.Items[idx].InvoiceID = inv.ID
	}
	if err := inv.recalculate(shippingCents, discountCents); err != nil {
		return nil, err
	}
	inv.PaymentStatus = DerivePaymentStatus(inv.TotalCents, 0)
	return inv, nil
}

func (i *Invoice) recalculate(shippingCents, discountCents int64) error {
	lineTotals := make([]int64, len(i.Items))
	for idx, item := range i.Items {
		lineTotals[idx] = item.TotalCents
	}
	totals, err := ComputeTotals(SumLineTotals(lineTotals...), shippingCents, discountCents)
	if err != nil {
		return err
	}
	i.Totals = totals
	return nil
}

// IsActive reports whether the invoice counts toward payment and shipment rules
func (i *Invoice) IsActive() bool {
	return i.Status == InvoiceStatusActive && i.DeletedAt == nil
}

// UpdateCharges changes shipping and discount and recomputes the total
func (i *Invoice) UpdateCharges(shippingCents, discountCents int64, netPaidCents int64) error {
	if !i.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Only active invoices can be edited")
	}
	if err := i.recalculate(shippingCents, discountCents); err != nil {
		return err
	}
	i.PaymentStatus = DerivePaymentStatus(i.TotalCents, netPaidCents)
	i.Touch()
	return nil
}

// RefreshPaymentStatus recomputes the derived payment status.
// Archived invoices keep the status frozen at archive time.
func (i *Invoice) RefreshPaymentStatus(netPaidCents int64) bool {
	if !i.IsActive() {
		return false
	}
	next := DerivePaymentStatus(i.TotalCents, netPaidCents)
	if next == i.PaymentStatus {
		return false
	}
	i.PaymentStatus = next
	i.Touch()
	return true
}

// Archive archives the invoice, refusing to archive the order's last active invoice
func (i *Invoice) Archive(activeInvoices int, netPaidCents int64, now time.Time) error {
	if !i.IsActive() {
		return shared.NewInvalidTransitionError("invoice", i.Status.String(), InvoiceStatusArchived.String())
	}
	if activeInvoices <= 1 {
		return shared.NewValidationError("status", "LAST_ACTIVE_INVOICE", "Cannot archive the order's last active invoice")
	}
	i.freeze(netPaidCents, now)
	return nil
}

// ArchiveForCancellation archives the invoice as part of order cancellation
func (i *Invoice) ArchiveForCancellation(netPaidCents int64, now time.Time) bool {
	if !i.IsActive() {
		return false
	}
	i.freeze(netPaidCents, now)
	return true
}

func (i *Invoice) freeze(netPaidCents int64, now time.Time) {
	i.PaymentStatus = DerivePaymentStatus(i.TotalCents, netPaidCents)
	i.Status = InvoiceStatusArchived
	i.ArchivedAt = &now
	i.UpdatedAt = now
}

// QuantitiesByItem sums allocated quantity per order item
func (i *Invoice) QuantitiesByItem() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(i.Items))
	for _, item := range i.Items {
		out[item.OrderItemID] = out[item.OrderItemID].Add(item.Quantity)
	}
	return out
}

// InvoicedQuantities sums allocations across invoices that still hold them
func InvoicedQuantities(invoices []*Invoice) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, inv := range invoices {
		if !inv.IsActive() {
			continue
		}
		for itemID, qty := range inv.QuantitiesByItem() {
			out[itemID] = out[itemID].Add(qty)
		}
	}
	return out
}

// SortInvoicesBySequence orders invoices by sequence ascending
func SortInvoicesBySequence(invoices []*Invoice) {
	sort.Slice(invoices, func(a, b int) bool { return invoices[a].Sequence < invoices[b].Sequence })
}
