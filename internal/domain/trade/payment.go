package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentMethod identifies how money moved; it selects the merchant account
type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodACH   PaymentMethod = "ach"
	PaymentMethodWire  PaymentMethod = "wire"
	PaymentMethodCheck PaymentMethod = "check"
	PaymentMethodCash  PaymentMethod = "cash"
)

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is a signed money movement against one invoice.
// Positive amounts are payments, negative amounts are refunds.
type Payment struct {
	shared.BaseEntity
	OrderID     uuid.UUID
	InvoiceID   uuid.UUID
	StoreID     uuid.UUID
	PaymentNo   string
	AmountCents int64
	Method      PaymentMethod
	IsDeposit   bool
	PaidAt      time.Time
	Note        string
	DeletedAt   *time.Time
}

// NewPayment creates a payment or refund against an active invoice.
// Amount limits are enforced separately by ValidatePaymentAmount.
func NewPayment(order *SaleOrder, invoice *Invoice, paymentNo string, amountCents int64, method PaymentMethod, isDeposit bool, paidAt time.Time, note string) (*Payment, error) {
	if !order.AcceptsPayments() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payments on order in %s status", order.Status))
	}
	if invoice.OrderID != order.ID {
		return nil, shared.NewValidationError("invoice_id", "INVOICE_MISMATCH", "Invoice does not belong to this order")
	}
	if !invoice.IsActive() {
		return nil, shared.NewValidationError("invoice_id", "INVOICE_NOT_ACTIVE", "Payments can only be recorded against active invoices")
	}
	if amountCents == 0 {
		return nil, shared.NewValidationError("amount_cents", "INVALID_AMOUNT", "Amount cannot be zero")
	}
	if strings.TrimSpace(string(method)) == "" {
		return nil, shared.NewValidationError("method", "REQUIRED", "Payment method is required")
	}
	if paymentNo == "" {
		return nil, shared.NewValidationError("payment_no", "INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	return &Payment{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     order.ID,
		InvoiceID:   invoice.ID,
		StoreID:     order.StoreID,
		PaymentNo:   paymentNo,
		AmountCents: amountCents,
		Method:      method,
		IsDeposit:   isDeposit && amountCents > 0,
		PaidAt:      paidAt,
		Note:        note,
	}, nil
}

// IsRefund reports whether the payment returns money to the customer
func (p *Payment) IsRefund() bool {
	return p.AmountCents < 0
}

// IsDeleted reports whether the payment was soft-deleted
func (p *Payment) IsDeleted() bool {
	return p.DeletedAt != nil
}

// SoftDelete removes the payment from every balance computation
func (p *Payment) SoftDelete(now time.Time) error {
	if p.IsDeleted() {
		return shared.NewDomainError("ALREADY_DELETED", "Payment is already deleted")
	}
	p.DeletedAt = &now
	p.UpdatedAt = now
	return nil
}

// PaymentLine is the minimal view of a payment the validator needs
type PaymentLine struct {
	AmountCents int64
	Deleted     bool
}

// Line projects a payment onto a PaymentLine
func (p *Payment) Line() PaymentLine {
	return PaymentLine{AmountCents: p.AmountCents, Deleted: p.IsDeleted()}
}

// InvoicePayments pairs an invoice's status and total with its payments
type InvoicePayments struct {
	InvoiceID  uuid.UUID
	Code       string
	Status     InvoiceStatus
	TotalCents int64
	Payments   []PaymentLine
}

// NewInvoicePayments groups payments under their invoice
func NewInvoicePayments(inv *Invoice, payments []*Payment) InvoicePayments {
	ip := InvoicePayments{
		InvoiceID:  inv.ID,
		Code:       inv.Code,
		Status:     inv.Status,
		TotalCents: inv.TotalCents,
	}
	if inv.DeletedAt != nil {
		ip.Status = InvoiceStatusArchived
	}
	for _, p := range payments {
		if p.InvoiceID == inv.ID {
			ip.Payments = append(ip.Payments, p.Line())
		}
	}
	return ip
}

// BuildInvoicePayments groups payments under each invoice
func BuildInvoicePayments(invoices []*Invoice, payments []*Payment) []InvoicePayments {
	out := make([]InvoicePayments, len(invoices))
	for idx, inv := range invoices {
		out[idx] = NewInvoicePayments(inv, payments)
	}
	return out
}

// PaidCents sums positive non-deleted amounts
func (ip InvoicePayments) PaidCents() int64 {
	var paid int64
	for _, p := range ip.Payments {
		if !p.Deleted && p.AmountCents > 0 {
			paid += p.AmountCents
		}
	}
	return paid
}

// RefundedCents sums the magnitude of negative non-deleted amounts
func (ip InvoicePayments) RefundedCents() int64 {
	var refunded int64
	for _, p := range ip.Payments {
		if !p.Deleted && p.AmountCents < 0 {
			refunded -= p.AmountCents
		}
	}
	return refunded
}

// NetPaidCents is paid minus refunded, excluding deleted payments
func (ip InvoicePayments) NetPaidCents() int64 {
	return ip.PaidCents() - ip.RefundedCents()
}

// IsActive reports whether the invoice is Active
func (ip InvoicePayments) IsActive() bool {
	return ip.Status == InvoiceStatusActive
}

// IsFullyPaid reports net paid >= total
func (ip InvoicePayments) IsFullyPaid() bool {
	return ip.NetPaidCents() >= ip.TotalCents
}

// PaymentStatus derives the payment status from the payments
func (ip InvoicePayments) PaymentStatus() PaymentStatus {
	return DerivePaymentStatus(ip.TotalCents, ip.NetPaidCents())
}

// ActiveInvoices filters to Active invoices
func ActiveInvoices(invoices []InvoicePayments) []InvoicePayments {
	out := make([]InvoicePayments, 0, len(invoices))
	for _, ip := range invoices {
		if ip.IsActive() {
			out = append(out, ip)
		}
	}
	return out
}

// AllActiveInvoicesPaid reports whether every Active invoice is fully paid.
// An order without Active invoices is never all paid.
func AllActiveInvoicesPaid(invoices []InvoicePayments) bool {
	active := ActiveInvoices(invoices)
	if len(active) == 0 {
		return false
	}
	for _, ip := range active {
		if !ip.IsFullyPaid() {
			return false
		}
	}
	return true
}

// PositivePaymentsCents sums positive non-deleted payments across the order
func PositivePaymentsCents(payments []*Payment) int64 {
	var total int64
	for _, p := range payments {
		if !p.IsDeleted() && p.AmountCents > 0 {
			total += p.AmountCents
		}
	}
	return total
}

// RefundsBeforeCents sums the magnitude of non-deleted refunds recorded
// at or before cutoff. A nil cutoff counts every refund.
func RefundsBeforeCents(payments []*Payment, cutoff *time.Time) int64 {
	var total int64
	for _, p := range payments {
		if p.IsDeleted() || p.AmountCents >= 0 {
			continue
		}
		if cutoff != nil && p.CreatedAt.After(*cutoff) {
			continue
		}
		total -= p.AmountCents
	}
	return total
}
