package trade

import (
	"encoding/json"
	"time"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Sale Order DTOs ====================

// ItemInput is the desired state of one order line. A nil ID adds a line.
type ItemInput struct {
	ID              *uuid.UUID      `json:"id"`
	SKU             string          `json:"sku" validate:"max=64"`
	Description     string          `json:"description" validate:"max=500"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPriceCents  int64           `json:"unit_price_cents" validate:"gte=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func itemDrafts(items []ItemInput) []trade.ItemDraft {
	drafts := make([]trade.ItemDraft, len(items))
	for idx, item := range items {
		drafts[idx] = trade.ItemDraft{
			ID:              item.ID,
			SKU:             item.SKU,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
		}
	}
	return drafts
}

// CreateSaleOrderRequest creates a draft order
type CreateSaleOrderRequest struct {
	CustomerName    string      `json:"customer_name" validate:"max=200"`
	CustomerEmail   string      `json:"customer_email" validate:"omitempty,email,max=200"`
	CustomerPhone   string      `json:"customer_phone" validate:"max=50"`
	ShippingAddress string      `json:"shipping_address" validate:"max=500"`
	PaymentTerms    string      `json:"payment_terms" validate:"max=100"`
	Notes           string      `json:"notes" validate:"max=2000"`
	ShippingCents   int64       `json:"shipping_cents" validate:"gte=0"`
	DiscountCents   int64       `json:"discount_cents" validate:"gte=0"`
	Items           []ItemInput `json:"items" validate:"dive"`
}

func (r CreateSaleOrderRequest) customer() trade.Customer {
	return trade.Customer{Name: r.CustomerName, Email: r.CustomerEmail, Phone: r.CustomerPhone, ShippingAddress: r.ShippingAddress}
}

// UpdateSaleOrderRequest replaces the header of an editable order
type UpdateSaleOrderRequest struct {
	CustomerName    string `json:"customer_name" validate:"max=200"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email,max=200"`
	CustomerPhone   string `json:"customer_phone" validate:"max=50"`
	ShippingAddress string `json:"shipping_address" validate:"max=500"`
	PaymentTerms    string `json:"payment_terms" validate:"max=100"`
	Notes           string `json:"notes" validate:"max=2000"`
	ShippingCents   int64  `json:"shipping_cents" validate:"gte=0"`
	DiscountCents   int64  `json:"discount_cents" validate:"gte=0"`
}

func (r UpdateSaleOrderRequest) customer() trade.Customer {
	return trade.Customer{Name: r.CustomerName, Email: r.CustomerEmail, Phone: r.CustomerPhone, ShippingAddress: r.ShippingAddress}
}

// PreviewSaleOrderRequest prices lines and charges without saving anything
type PreviewSaleOrderRequest struct {
	ShippingCents int64       `json:"shipping_cents" validate:"gte=0"`
	DiscountCents int64       `json:"discount_cents" validate:"gte=0"`
	Items         []ItemInput `json:"items" validate:"dive"`
}

// SyncItemsRequest replaces the order's item set, in order
type SyncItemsRequest struct {
	Items []ItemInput `json:"items" validate:"dive"`
}

// TransitionSaleOrderRequest asks for a direct status change
type TransitionSaleOrderRequest struct {
	Status trade.OrderStatus `json:"status" validate:"required"`
	// Timezone dates a completion; the configured default applies when empty
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

// ==================== Invoice DTOs ====================

// InvoiceLineInput requests quantity of one order item
type InvoiceLineInput struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateInvoiceRequest invoices selected quantities
type CreateInvoiceRequest struct {
	Items         []InvoiceLineInput `json:"items" validate:"required,min=1,dive"`
	ShippingCents *int64             `json:"shipping_cents" validate:"omitempty,gte=0"`
	DiscountCents *int64             `json:"discount_cents" validate:"omitempty,gte=0"`
}

func (r CreateInvoiceRequest) lineRequests() []trade.InvoiceLineRequest {
	lines := make([]trade.InvoiceLineRequest, len(r.Items))
	for idx, item := range r.Items {
		lines[idx] = trade.InvoiceLineRequest{OrderItemID: item.ItemID, Quantity: item.Quantity}
	}
	return lines
}

func (r CreateInvoiceRequest) itemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Items))
	for idx, item := range r.Items {
		ids[idx] = item.ItemID
	}
	return ids
}

// UpdateInvoiceRequest changes an active invoice's charges
type UpdateInvoiceRequest struct {
	ShippingCents int64 `json:"shipping_cents" validate:"gte=0"`
	DiscountCents int64 `json:"discount_cents" validate:"gte=0"`
}

// ==================== Shipment DTOs ====================

// CreateShipmentRequest creates an open shipment
type CreateShipmentRequest struct {
	ItemIDs        []uuid.UUID `json:"item_ids" validate:"required,min=1"`
	Carrier        string      `json:"carrier" validate:"max=100"`
	TrackingNumber string      `json:"tracking_number" validate:"max=100"`
}

// UpdateShipmentRequest edits an open shipment. Nil ItemIDs keeps the items.
type UpdateShipmentRequest struct {
	ItemIDs        []uuid.UUID `json:"item_ids" validate:"omitempty,min=1"`
	Carrier        string      `json:"carrier" validate:"max=100"`
	TrackingNumber string      `json:"tracking_number" validate:"max=100"`
}

// TransitionShipmentRequest ships or archives a shipment
type TransitionShipmentRequest struct {
	Status trade.ShipmentStatus `json:"status" validate:"required"`
}

// ==================== Payment DTOs ====================

// CreatePaymentRequest records a payment, or a refund when AmountCents < 0
type CreatePaymentRequest struct {
	InvoiceID   uuid.UUID           `json:"invoice_id" validate:"required"`
	AmountCents int64               `json:"amount_cents" validate:"ne=0"`
	Method      trade.PaymentMethod `json:"method" validate:"required,max=30"`
	IsDeposit   bool                `json:"is_deposit"`
	PaidAt      *time.Time          `json:"paid_at"`
	Note        string              `json:"note" validate:"max=500"`
}

// ValidatePaymentAmountRequest checks a candidate amount without recording it
type ValidatePaymentAmountRequest struct {
	InvoiceID   uuid.UUID `json:"invoice_id" validate:"required"`
	AmountCents int64     `json:"amount_cents"`
}

// ==================== Responses ====================

// TotalsResponse carries the money fields of an order or invoice
type TotalsResponse struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

func toTotalsResponse(t trade.Totals) TotalsResponse {
	return TotalsResponse{
		SubtotalCents: t.SubtotalCents,
		ShippingCents: t.ShippingCents,
		DiscountCents: t.DiscountCents,
		TotalCents:    t.TotalCents,
	}
}

// PreviewResponse is the priced result of a preview
type PreviewResponse struct {
	TotalsResponse
	LineTotalsCents []int64 `json:"line_totals_cents"`
}

// SaleOrderItemResponse is one order line
type SaleOrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	LineNo          int             `json:"line_no"`
	SKU             string          `json:"sku"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPriceCents  int64           `json:"unit_price_cents"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TotalCents      int64           `json:"total_cents"`
}

// SaleOrderResponse is the order header with its items
type SaleOrderResponse struct {
	ID              uuid.UUID               `json:"id"`
	StoreID         uuid.UUID               `json:"store_id"`
	OrderNo         string                  `json:"order_no"`
	Status          trade.OrderStatus       `json:"status"`
	CustomerName    string                  `json:"customer_name"`
	CustomerEmail   string                  `json:"customer_email,omitempty"`
	CustomerPhone   string                  `json:"customer_phone,omitempty"`
	ShippingAddress string                  `json:"shipping_address,omitempty"`
	PaymentTerms    string                  `json:"payment_terms,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	Items           []SaleOrderItemResponse `json:"items"`
	TotalsResponse
	DateCreated   time.Time  `json:"date_created"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`

	BookkeepingException        bool            `json:"bookkeeping_exception"`
	BookkeepingExceptionPayload json.RawMessage `json:"bookkeeping_exception_payload,omitempty"`
	BookkeepingLastCheckedAt    *time.Time      `json:"bookkeeping_last_checked_at,omitempty"`
	Version                     int             `json:"version"`
}

// ToSaleOrderResponse converts an order to its response
func ToSaleOrderResponse(order *trade.SaleOrder) SaleOrderResponse {
	items := make([]SaleOrderItemResponse, len(order.Items))
	for idx, item := range order.Items {
		items[idx] = SaleOrderItemResponse{
			ID:              item.ID,
			LineNo:          item.LineNo,
			SKU:             item.SKU,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
			TotalCents:      item.TotalCents,
		}
	}
	return SaleOrderResponse{
		ID:                          order.ID,
		StoreID:                     order.StoreID,
		OrderNo:                     order.OrderNo,
		Status:                      order.Status,
		CustomerName:                order.Customer.Name,
		CustomerEmail:               order.Customer.Email,
		CustomerPhone:               order.Customer.Phone,
		ShippingAddress:             order.Customer.ShippingAddress,
		PaymentTerms:                order.PaymentTerms,
		Notes:                       order.Notes,
		Items:                       items,
		TotalsResponse:              toTotalsResponse(order.Totals),
		DateCreated:                 order.DateCreated,
		DateCompleted:               order.DateCompleted,
		BookkeepingException:        order.BookkeepingException,
		BookkeepingExceptionPayload: order.BookkeepingExceptionPayload,
		BookkeepingLastCheckedAt:    order.BookkeepingLastCheckedAt,
		Version:                     order.GetVersion(),
	}
}

// InvoiceItemResponse is one invoice line
type InvoiceItemResponse struct {
	ItemID         uuid.UUID       `json:"item_id"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	TotalCents     int64           `json:"total_cents"`
}

// InvoiceResponse is an invoice with its live balances
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	Sequence      int                   `json:"sequence"`
	Code          string                `json:"code"`
	Status        trade.InvoiceStatus   `json:"status"`
	PaymentStatus trade.PaymentStatus   `json:"payment_status"`
	Items         []InvoiceItemResponse `json:"items"`
	TotalsResponse
	NetPaidCents int64      `json:"net_paid_cents"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

// ToInvoiceResponse converts an invoice; payments supply the net paid amount
func ToInvoiceResponse(inv *trade.Invoice, payments []*trade.Payment) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for idx, item := range inv.Items {
		items[idx] = InvoiceItemResponse{
			ItemID:         item.OrderItemID,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		}
	}
	return InvoiceResponse{
		ID:             inv.ID,
		Sequence:       inv.Sequence,
		Code:           inv.Code,
		Status:         inv.Status,
		PaymentStatus:  inv.PaymentStatus,
		Items:          items,
		TotalsResponse: toTotalsResponse(inv.Totals),
		NetPaidCents:   trade.NewInvoicePayments(inv, payments).NetPaidCents(),
		ArchivedAt:     inv.ArchivedAt,
	}
}

// ShipmentResponse is a shipment with its order item ids
type ShipmentResponse struct {
	ID             uuid.UUID            `json:"id"`
	ShipmentNo     string               `json:"shipment_no"`
	Status         trade.ShipmentStatus `json:"status"`
	Carrier        string               `json:"carrier,omitempty"`
	TrackingNumber string               `json:"tracking_number,omitempty"`
	ItemIDs        []uuid.UUID          `json:"item_ids"`
	ShippedAt      *time.Time           `json:"shipped_at,omitempty"`
	ArchivedAt     *time.Time           `json:"archived_at,omitempty"`
}

// ToShipmentResponse converts a shipment to its response
func ToShipmentResponse(s *trade.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:             s.ID,
		ShipmentNo:     s.ShipmentNo,
		Status:         s.Status,
		Carrier:        s.Carrier,
		TrackingNumber: s.TrackingNumber,
		ItemIDs:        s.OrderItemIDs(),
		ShippedAt:      s.ShippedAt,
		ArchivedAt:     s.ArchivedAt,
	}
}

// PaymentResponse is a payment or refund
type PaymentResponse struct {
	ID          uuid.UUID           `json:"id"`
	InvoiceID   uuid.UUID           `json:"invoice_id"`
	PaymentNo   string              `json:"payment_no"`
	AmountCents int64               `json:"amount_cents"`
	Method      trade.PaymentMethod `json:"method"`
	IsDeposit   bool                `json:"is_deposit"`
	PaidAt      time.Time           `json:"paid_at"`
	Note        string              `json:"note,omitempty"`
	DeletedAt   *time.Time          `json:"deleted_at,omitempty"`
}

// ToPaymentResponse converts a payment to its response
func ToPaymentResponse(p *trade.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		PaymentNo:   p.PaymentNo,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		IsDeposit:   p.IsDeposit,
		PaidAt:      p.PaidAt,
		Note:        p.Note,
		DeletedAt:   p.DeletedAt,
	}
}

// PaymentVerdictResponse is the outcome of an amount check
type PaymentVerdictResponse struct {
	Accepted       bool     `json:"accepted"`
	Reason         string   `json:"reason,omitempty"`
	Errors         []string `json:"errors"`
	NewPaidCents   int64    `json:"new_paid_cents"`
	NewRefundCents int64    `json:"new_refund_cents"`
	NewNetCents    int64    `json:"new_net_cents"`
}

func toPaymentVerdictResponse(v trade.PaymentVerdict) PaymentVerdictResponse {
	errs := v.Errors
	if errs == nil {
		errs = []string{}
	}
	return PaymentVerdictResponse{
		Accepted:       v.Accepted,
		Reason:         string(v.Reason),
		Errors:         errs,
		NewPaidCents:   v.NewPaidCents,
		NewRefundCents: v.NewRefundCents,
		NewNetCents:    v.NewNetCents,
	}
}

// SaleOrderDetailResponse is the full aggregate as Get returns it
type SaleOrderDetailResponse struct {
	SaleOrderResponse
	Invoices  []InvoiceResponse  `json:"invoices"`
	Shipments []ShipmentResponse `json:"shipments"`
	Payments  []PaymentResponse  `json:"payments"`
	Abilities map[string]bool    `json:"abilities"`
}
