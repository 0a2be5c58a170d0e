package trade

import (
	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeSaleOrder = "SaleOrder"
	AggregateTypeInvoice   = "SaleOrderInvoice"
	AggregateTypeShipment  = "SaleOrderShipment"
	AggregateTypePayment   = "SaleOrderPayment"
)

// Event type constants
const (
	EventTypeSaleOrderCreated       = "SaleOrderCreated"
	EventTypeSaleOrderStatusChanged = "SaleOrderStatusChanged"
	EventTypeInvoiceCreated         = "SaleOrderInvoiceCreated"
	EventTypeInvoiceArchived        = "SaleOrderInvoiceArchived"
	EventTypeShipmentStatusChanged  = "SaleOrderShipmentStatusChanged"
	EventTypePaymentRecorded        = "SaleOrderPaymentRecorded"
	EventTypePaymentDeleted         = "SaleOrderPaymentDeleted"
)

// SaleOrderCreatedEvent is raised when a draft order is created
type SaleOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNo      string `json:"order_no"`
	CustomerName string `json:"customer_name"`
}

// NewSaleOrderCreatedEvent creates a new SaleOrderCreatedEvent
func NewSaleOrderCreatedEvent(order *SaleOrder) *SaleOrderCreatedEvent {
	return &SaleOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleOrderCreated, AggregateTypeSaleOrder, order.ID, order.StoreID),
		OrderNo:         order.OrderNo,
		CustomerName:    order.Customer.Name,
	}
}

// SaleOrderStatusChangedEvent is raised on every order status change,
// whether requested directly or driven by shipment progress
type SaleOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNo    string      `json:"order_no"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	TotalCents int64       `json:"total_cents"`
}

// NewSaleOrderStatusChangedEvent creates a new SaleOrderStatusChangedEvent
func NewSaleOrderStatusChangedEvent(order *SaleOrder, from, to OrderStatus) *SaleOrderStatusChangedEvent {
	return &SaleOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleOrderStatusChanged, AggregateTypeSaleOrder, order.ID, order.StoreID),
		OrderNo:         order.OrderNo,
		FromStatus:      from,
		ToStatus:        to,
		TotalCents:      order.TotalCents,
	}
}

// InvoiceCreatedEvent is raised when an invoice is generated or created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	Code       string    `json:"code"`
	TotalCents int64     `json:"total_cents"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.StoreID),
		OrderID:         inv.OrderID,
		Code:            inv.Code,
		TotalCents:      inv.TotalCents,
	}
}

// InvoiceArchivedEvent is raised when an invoice is archived
type InvoiceArchivedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID     `json:"order_id"`
	Code          string        `json:"code"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Cascade       bool          `json:"cascade"`
}

// NewInvoiceArchivedEvent creates a new InvoiceArchivedEvent
func NewInvoiceArchivedEvent(inv *Invoice, cascade bool) *InvoiceArchivedEvent {
	return &InvoiceArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceArchived, AggregateTypeInvoice, inv.ID, inv.StoreID),
		OrderID:         inv.OrderID,
		Code:            inv.Code,
		PaymentStatus:   inv.PaymentStatus,
		Cascade:         cascade,
	}
}

// ShipmentStatusChangedEvent is raised when a shipment ships or is archived
type ShipmentStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID      `json:"order_id"`
	ShipmentNo string         `json:"shipment_no"`
	FromStatus ShipmentStatus `json:"from_status"`
	ToStatus   ShipmentStatus `json:"to_status"`
}

// NewShipmentStatusChangedEvent creates a new ShipmentStatusChangedEvent
func NewShipmentStatusChangedEvent(s *Shipment, from, to ShipmentStatus) *ShipmentStatusChangedEvent {
	return &ShipmentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentStatusChanged, AggregateTypeShipment, s.ID, s.StoreID),
		OrderID:         s.OrderID,
		ShipmentNo:      s.ShipmentNo,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// PaymentRecordedEvent is raised when a payment or refund is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID     `json:"order_id"`
	InvoiceID   uuid.UUID     `json:"invoice_id"`
	PaymentNo   string        `json:"payment_no"`
	AmountCents int64         `json:"amount_cents"`
	Method      PaymentMethod `json:"method"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.StoreID),
		OrderID:         p.OrderID,
		InvoiceID:       p.InvoiceID,
		PaymentNo:       p.PaymentNo,
		AmountCents:     p.AmountCents,
		Method:          p.Method,
	}
}

// PaymentDeletedEvent is raised when a payment is soft-deleted
type PaymentDeletedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	PaymentNo   string    `json:"payment_no"`
	AmountCents int64     `json:"amount_cents"`
}

// NewPaymentDeletedEvent creates a new PaymentDeletedEvent
func NewPaymentDeletedEvent(p *Payment) *PaymentDeletedEvent {
	return &PaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentDeleted, AggregateTypePayment, p.ID, p.StoreID),
		OrderID:         p.OrderID,
		InvoiceID:       p.InvoiceID,
		PaymentNo:       p.PaymentNo,
		AmountCents:     p.AmountCents,
	}
}
