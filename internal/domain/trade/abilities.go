package trade

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ability names exposed to callers
const (
	AbilityEdit     = "can_edit"
	AbilityOpen     = "can_open"
	AbilityCancel   = "can_cancel"
	AbilityInvoice  = "can_invoice"
	AbilityShip     = "can_ship"
	AbilityPay      = "can_pay"
	AbilityRefund   = "can_refund"
	AbilityComplete = "can_complete"
)

// AbilitySnapshot is an unlocked read of an order and its dependents
type AbilitySnapshot struct {
	Order     *SaleOrder
	Invoices  []*Invoice
	Shipments []*Shipment
	Payments  []*Payment
}

// Abilities is a read-only projection of what the order currently allows.
// It may be stale; every mutation re-checks under lock.
type Abilities struct {
	CanEdit     bool
	CanOpen     bool
	CanCancel   bool
	CanInvoice  bool
	CanShip     bool
	CanPay      bool
	CanRefund   bool
	CanComplete bool
}

// ComputeAbilities derives the abilities from a snapshot
func ComputeAbilities(s AbilitySnapshot) Abilities {
	order := s.Order
	if order == nil {
		return Abilities{}
	}
	balances := BuildInvoicePayments(s.Invoices, s.Payments)
	active := ActiveInvoices(balances)
	shipped := ShippedItemSet(s.Shipments, uuid.Nil)
	allPaid := AllActiveInvoicesPaid(balances)

	var a Abilities
	a.CanEdit = order.CanEditItems()
	a.CanOpen = order.Status.CanTransitionTo(OrderStatusOpen) &&
		strings.TrimSpace(order.Customer.Name) != "" && len(order.Items) > 0
	a.CanCancel = order.Status.CanTransitionTo(OrderStatusCancelled) && !HasShippedShipment(s.Shipments)
	a.CanInvoice = order.CanCreateInvoice() && hasUninvoicedQuantity(order, InvoicedQuantities(s.Invoices))
	a.CanShip = order.CanCreateShipment() && len(active) > 0 && len(shipped) < len(order.Items)
	a.CanPay = order.AcceptsPayments() && len(active) > 0 && !allPaid
	a.CanComplete = order.Status.CanTransitionTo(OrderStatusCompleted) && allPaid

	if order.AcceptsPayments() {
		for _, ip := range active {
			if ip.NetPaidCents() > 0 {
				a.CanRefund = true
				break
			}
		}
	}
	return a
}

func hasUninvoicedQuantity(order *SaleOrder, invoiced map[uuid.UUID]decimal.Decimal) bool {
	for _, item := range order.Items {
		if item.Quantity.GreaterThan(invoiced[item.ID]) {
			return true
		}
	}
	return false
}

// Map returns the abilities keyed by name
func (a Abilities) Map() map[string]bool {
	return map[string]bool{
		AbilityEdit:     a.CanEdit,
		AbilityOpen:     a.CanOpen,
		AbilityCancel:   a.CanCancel,
		AbilityInvoice:  a.CanInvoice,
		AbilityShip:     a.CanShip,
		AbilityPay:      a.CanPay,
		AbilityRefund:   a.CanRefund,
		AbilityComplete: a.CanComplete,
	}
}
