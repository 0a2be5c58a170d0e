package models

import (
	"encoding/json"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleOrderModel is the persistence model for the SaleOrder aggregate root.
type SaleOrderModel struct {
	VersionedModel
	StoreID         uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_store_number,priority:1"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null"`
	OrderNo         string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_sale_order_store_number,priority:2"`
	Status          trade.OrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CustomerName    string            `gorm:"type:varchar(200)"`
	CustomerEmail   string            `gorm:"type:varchar(200)"`
	CustomerPhone   string            `gorm:"type:varchar(50)"`
	ShippingAddress string            `gorm:"type:text"`
	PaymentTerms    string            `gorm:"type:varchar(100)"`
	Notes           string            `gorm:"type:text"`
	SubtotalCents   int64             `gorm:"not null;default:0"`
	ShippingCents   int64             `gorm:"not null;default:0"`
	DiscountCents   int64             `gorm:"not null;default:0"`
	TotalCents      int64             `gorm:"not null;default:0"`
	DateCreated     time.Time         `gorm:"not null"`
	DateCompleted   *time.Time        `gorm:"type:date"`
	CompletedAt     *time.Time

	BookkeepingException        bool    `gorm:"not null;default:false;index"`
	BookkeepingExceptionPayload *string `gorm:"type:jsonb"`
	BookkeepingLastCheckedAt    *time.Time

	Items []SaleOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleOrderModel) TableName() string {
	return "sale_orders"
}

// ToDomain converts the persistence model to a domain SaleOrder aggregate.
func (m *SaleOrderModel) ToDomain() *trade.SaleOrder {
	order := &trade.SaleOrder{
		StoreAggregateRoot: shared.StoreAggregateRoot{
			BaseAggregateRoot: m.Aggregate(),
			StoreID:           m.StoreID,
			UserID:            m.UserID,
		},
		OrderNo: m.OrderNo,
		Status:  m.Status,
		Customer: trade.Customer{
			Name:            m.CustomerName,
			Email:           m.CustomerEmail,
			Phone:           m.CustomerPhone,
			ShippingAddress: m.ShippingAddress,
		},
		PaymentTerms: m.PaymentTerms,
		Notes:        m.Notes,
		Totals: trade.Totals{
			SubtotalCents: m.SubtotalCents,
			ShippingCents: m.ShippingCents,
			DiscountCents: m.DiscountCents,
			TotalCents:    m.TotalCents,
		},
		DateCreated:              m.DateCreated,
		DateCompleted:            m.DateCompleted,
		CompletedAt:              m.CompletedAt,
		BookkeepingException:     m.BookkeepingException,
		BookkeepingLastCheckedAt: m.BookkeepingLastCheckedAt,
		Items:                    make([]trade.SaleOrderItem, len(m.Items)),
	}
	if m.BookkeepingExceptionPayload != nil {
		order.BookkeepingExceptionPayload = json.RawMessage(*m.BookkeepingExceptionPayload)
	}
	for i := range m.Items {
		order.Items[i] = *m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SaleOrder aggregate.
func (m *SaleOrderModel) FromDomain(o *trade.SaleOrder) {
	m.VersionedModel = versionedModelOf(o.BaseAggregateRoot)
	m.StoreID = o.StoreID
	m.UserID = o.UserID
	m.OrderNo = o.OrderNo
	m.Status = o.Status
	m.CustomerName = o.Customer.Name
	m.CustomerEmail = o.Customer.Email
	m.CustomerPhone = o.Customer.Phone
	m.ShippingAddress = o.Customer.ShippingAddress
	m.PaymentTerms = o.PaymentTerms
	m.Notes = o.Notes
	m.SubtotalCents = o.SubtotalCents
	m.ShippingCents = o.ShippingCents
	m.DiscountCents = o.DiscountCents
	m.TotalCents = o.TotalCents
	m.DateCreated = o.DateCreated
	m.DateCompleted = o.DateCompleted
	m.CompletedAt = o.CompletedAt
	m.BookkeepingException = o.BookkeepingException
	m.BookkeepingLastCheckedAt = o.BookkeepingLastCheckedAt
	m.BookkeepingExceptionPayload = nil
	if len(o.BookkeepingExceptionPayload) > 0 {
		payload := string(o.BookkeepingExceptionPayload)
		m.BookkeepingExceptionPayload = &payload
	}
	m.Items = make([]SaleOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *SaleOrderItemModelFromDomain(&o.Items[i])
	}
}

// SaleOrderModelFromDomain creates a new persistence model from a domain SaleOrder aggregate.
func SaleOrderModelFromDomain(o *trade.SaleOrder) *SaleOrderModel {
	m := &SaleOrderModel{}
	m.FromDomain(o)
	return m
}

// SaleOrderItemModel is the persistence model for the SaleOrderItem entity.
type SaleOrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_item_line,priority:1"`
	LineNo          int             `gorm:"not null;uniqueIndex:idx_sale_order_item_line,priority:2"`
	SKU             string          `gorm:"column:sku;type:varchar(100);not null"`
	Description     string          `gorm:"type:varchar(500)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceCents  int64           `gorm:"not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TotalCents      int64           `gorm:"not null"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleOrderItemModel) TableName() string {
	return "sale_order_items"
}

// ToDomain converts the persistence model to a domain SaleOrderItem entity.
func (m *SaleOrderItemModel) ToDomain() *trade.SaleOrderItem {
	return &trade.SaleOrderItem{
		ID:              m.ID,
		OrderID:         m.OrderID,
		LineNo:          m.LineNo,
		SKU:             m.SKU,
		Description:     m.Description,
		Quantity:        m.Quantity,
		UnitPriceCents:  m.UnitPriceCents,
		DiscountPercent: m.DiscountPercent,
		TotalCents:      m.TotalCents,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// SaleOrderItemModelFromDomain creates a new persistence model from a domain SaleOrderItem entity.
func SaleOrderItemModelFromDomain(i *trade.SaleOrderItem) *SaleOrderItemModel {
	return &SaleOrderItemModel{
		ID:              i.ID,
		OrderID:         i.OrderID,
		LineNo:          i.LineNo,
		SKU:             i.SKU,
		Description:     i.Description,
		Quantity:        i.Quantity,
		UnitPriceCents:  i.UnitPriceCents,
		DiscountPercent: i.DiscountPercent,
		TotalCents:      i.TotalCents,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// InvoiceModel is the persistence model for a sale order invoice.
type InvoiceModel struct {
	EntityModel
	OrderID       uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_invoice_seq,priority:1"`
	StoreID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	Sequence      int                 `gorm:"not null;uniqueIndex:idx_sale_order_invoice_seq,priority:2"`
	Code          string              `gorm:"type:varchar(80);not null"`
	Status        trade.InvoiceStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	PaymentStatus trade.PaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID'"`
	SubtotalCents int64               `gorm:"not null;default:0"`
	ShippingCents int64               `gorm:"not null;default:0"`
	DiscountCents int64               `gorm:"not null;default:0"`
	TotalCents    int64               `gorm:"not null;default:0"`
	ArchivedAt    *time.Time
	DeletedAt     *time.Time         `gorm:"index"`
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "sale_order_invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseEntity:    m.Entity(),
		OrderID:       m.OrderID,
		StoreID:       m.StoreID,
		Sequence:      m.Sequence,
		Code:          m.Code,
		Status:        m.Status,
		PaymentStatus: m.PaymentStatus,
		Totals: trade.Totals{
			SubtotalCents: m.SubtotalCents,
			ShippingCents: m.ShippingCents,
			DiscountCents: m.DiscountCents,
			TotalCents:    m.TotalCents,
		},
		ArchivedAt: m.ArchivedAt,
		DeletedAt:  m.DeletedAt,
		Items:      make([]trade.InvoiceItem, len(m.Items)),
	}
	for i, item := range m.Items {
		inv.Items[i] = trade.InvoiceItem{
			ID:              item.ID,
			InvoiceID:       item.InvoiceID,
			OrderItemID:     item.OrderItemID,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
			TotalCents:      item.TotalCents,
		}
	}
	return inv
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		OrderID:       inv.OrderID,
		StoreID:       inv.StoreID,
		Sequence:      inv.Sequence,
		Code:          inv.Code,
		Status:        inv.Status,
		PaymentStatus: inv.PaymentStatus,
		SubtotalCents: inv.SubtotalCents,
		ShippingCents: inv.ShippingCents,
		DiscountCents: inv.DiscountCents,
		TotalCents:    inv.TotalCents,
		ArchivedAt:    inv.ArchivedAt,
		DeletedAt:     inv.DeletedAt,
		Items:         make([]InvoiceItemModel, len(inv.Items)),
	}
	m.EntityModel = entityModelOf(inv.BaseEntity)
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModel{
			ID:              item.ID,
			InvoiceID:       inv.ID,
			OrderItemID:     item.OrderItemID,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
			TotalCents:      item.TotalCents,
		}
	}
	return m
}

// InvoiceItemModel is the persistence model for one invoice allocation.
type InvoiceItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description     string          `gorm:"type:varchar(500)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPriceCents  int64           `gorm:"not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TotalCents      int64           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "sale_order_invoice_items"
}

// ShipmentModel is the persistence model for a sale order shipment.
type ShipmentModel struct {
	EntityModel
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_shipment_number,priority:1"`
	StoreID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	ShipmentNo     string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_sale_order_shipment_number,priority:2"`
	Status         trade.ShipmentStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	Carrier        string               `gorm:"type:varchar(100)"`
	TrackingNumber string               `gorm:"type:varchar(100)"`
	ShippedAt      *time.Time
	ArchivedAt     *time.Time
	Items          []ShipmentItemModel `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "sale_order_shipments"
}

// ToDomain converts the persistence model to a domain Shipment.
func (m *ShipmentModel) ToDomain() *trade.Shipment {
	s := &trade.Shipment{
		BaseEntity:     m.Entity(),
		OrderID:        m.OrderID,
		StoreID:        m.StoreID,
		ShipmentNo:     m.ShipmentNo,
		Status:         m.Status,
		Carrier:        m.Carrier,
		TrackingNumber: m.TrackingNumber,
		ShippedAt:      m.ShippedAt,
		ArchivedAt:     m.ArchivedAt,
		Items:          make([]trade.ShipmentItem, len(m.Items)),
	}
	for i, item := range m.Items {
		s.Items[i] = trade.ShipmentItem{ID: item.ID, ShipmentID: item.ShipmentID, OrderItemID: item.OrderItemID}
	}
	return s
}

// ShipmentModelFromDomain creates a new persistence model from a domain Shipment.
func ShipmentModelFromDomain(s *trade.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		OrderID:        s.OrderID,
		StoreID:        s.StoreID,
		ShipmentNo:     s.ShipmentNo,
		Status:         s.Status,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		ShippedAt:      s.ShippedAt,
		ArchivedAt:     s.ArchivedAt,
		Items:          make([]ShipmentItemModel, len(s.Items)),
	}
	m.EntityModel = entityModelOf(s.BaseEntity)
	for i, item := range s.Items {
		m.Items[i] = ShipmentItemModel{ID: item.ID, ShipmentID: s.ID, OrderItemID: item.OrderItemID}
	}
	return m
}

// ShipmentItemModel attaches an order item to a shipment.
type ShipmentItemModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ShipmentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_shipment_item,priority:1"`
	OrderItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_shipment_item,priority:2"`
}

// TableName returns the table name for GORM
func (ShipmentItemModel) TableName() string {
	return "sale_order_shipment_items"
}

// PaymentModel is the persistence model for a sale order payment or refund.
type PaymentModel struct {
	EntityModel
	OrderID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_payment_number,priority:1"`
	InvoiceID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	StoreID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	PaymentNo   string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_sale_order_payment_number,priority:2"`
	AmountCents int64               `gorm:"not null"`
	Method      trade.PaymentMethod `gorm:"type:varchar(30);not null"`
	IsDeposit   bool                `gorm:"not null;default:false"`
	PaidAt      time.Time           `gorm:"not null"`
	Note        string              `gorm:"type:text"`
	DeletedAt   *time.Time          `gorm:"index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "sale_order_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *trade.Payment {
	return &trade.Payment{
		BaseEntity:  m.Entity(),
		OrderID:     m.OrderID,
		InvoiceID:   m.InvoiceID,
		StoreID:     m.StoreID,
		PaymentNo:   m.PaymentNo,
		AmountCents: m.AmountCents,
		Method:      m.Method,
		IsDeposit:   m.IsDeposit,
		PaidAt:      m.PaidAt,
		Note:        m.Note,
		DeletedAt:   m.DeletedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *trade.Payment) *PaymentModel {
	m := &PaymentModel{
		OrderID:     p.OrderID,
		InvoiceID:   p.InvoiceID,
		StoreID:     p.StoreID,
		PaymentNo:   p.PaymentNo,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		IsDeposit:   p.IsDeposit,
		PaidAt:      p.PaidAt,
		Note:        p.Note,
		DeletedAt:   p.DeletedAt,
	}
	m.EntityModel = entityModelOf(p.BaseEntity)
	return m
}
