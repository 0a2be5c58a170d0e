package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DocumentKind names a numbered document
type DocumentKind string

const (
	DocumentSaleOrder DocumentKind = "sale_order"
	DocumentShipment  DocumentKind = "shipment"
	DocumentPayment   DocumentKind = "payment"
)

// NumberScope identifies one numbering sequence. Order numbers run per
// store, shipment and payment numbers per order.
type NumberScope struct {
	Kind    DocumentKind
	StoreID uuid.UUID
	OrderID uuid.UUID
}

// OrderNumberScope returns the scope for a store's order numbers
func OrderNumberScope(storeID uuid.UUID) NumberScope {
	return NumberScope{Kind: DocumentSaleOrder, StoreID: storeID}
}

// ChildNumberScope returns the scope for an order's shipments or payments
func ChildNumberScope(kind DocumentKind, order *SaleOrder) NumberScope {
	return NumberScope{Kind: kind, StoreID: order.StoreID, OrderID: order.ID}
}

// Key is the stable string form of the scope
func (s NumberScope) Key() string {
	if s.OrderID != uuid.Nil {
		return fmt.Sprintf("%s:%s:%s", s.Kind, s.StoreID, s.OrderID)
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.StoreID)
}

// NumberFormat renders sequence values as document numbers
type NumberFormat struct {
	Prefixes map[DocumentKind]string
	Width    int
}

// DefaultNumberFormat is SO-000001, SHP-0001, PAY-0001 style numbering
func DefaultNumberFormat() NumberFormat {
	return NumberFormat{
		Prefixes: map[DocumentKind]string{
			DocumentSaleOrder: "SO",
			DocumentShipment:  "SHP",
			DocumentPayment:   "PAY",
		},
		Width: 6,
	}
}

// Format renders value for kind
func (f NumberFormat) Format(kind DocumentKind, value int64) string {
	prefix := f.Prefixes[kind]
	if prefix == "" {
		prefix = strings.ToUpper(string(kind))
	}
	width := f.Width
	if width <= 0 {
		width = 1
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, value)
}
