package trade

import (
	"fmt"

	"github.com/erp/wholesale/internal/domain/shared/valueobject"
)

// PaymentRejection names the rule that rejected a candidate amount
type PaymentRejection string

const (
	RejectionNone              PaymentRejection = ""
	RejectionAllInvoicesPaid   PaymentRejection = "all_invoices_paid"
	RejectionRefundExceedsPaid PaymentRejection = "refund_exceeds_paid"
	RejectionExceedsTotal      PaymentRejection = "exceeds_invoice_total"
)

// Validator messages
const (
	MsgAllInvoicesPaid   = "All active invoices for this order are already paid"
	MsgRefundExceedsPaid = "Cannot refund more than paid"
)

// PaymentCheck is the complete input to ValidatePaymentAmount
type PaymentCheck struct {
	// Invoice is the target invoice with its payments.
	Invoice InvoicePayments
	// OrderInvoices holds every invoice of the order, any status.
	OrderInvoices []InvoicePayments
	// AmountCents is the signed candidate amount.
	AmountCents int64
	Currency    valueobject.Currency
}

// PaymentVerdict is the tagged result of ValidatePaymentAmount
type PaymentVerdict struct {
	Accepted       bool
	Reason         PaymentRejection
	Errors         []string
	NewPaidCents   int64
	NewRefundCents int64
	NewNetCents    int64
}

// ValidatePaymentAmount decides whether a signed candidate amount may be
// recorded against an invoice. The first failing rule wins. It is pure:
// the same inputs always give the same verdict, so the fast pre-lock
// check and the authoritative post-lock check cannot disagree.
func ValidatePaymentAmount(check PaymentCheck) PaymentVerdict {
	candidate := check.AmountCents
	currency := check.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	if candidate > 0 && AllActiveInvoicesPaid(check.OrderInvoices) {
		return reject(RejectionAllInvoicesPaid, MsgAllInvoicesPaid)
	}

	existingPaid := check.Invoice.PaidCents()
	existingRefunded := check.Invoice.RefundedCents()
	newPaid := existingPaid + max(candidate, 0)
	newRefunded := existingRefunded + max(-candidate, 0)
	newNet := newPaid - newRefunded

	if newNet < 0 {
		return reject(RejectionRefundExceedsPaid, MsgRefundExceedsPaid)
	}
	if newNet > check.Invoice.TotalCents {
		return reject(RejectionExceedsTotal, fmt.Sprintf("Net payments (%s) cannot exceed invoice total (%s)",
			valueobject.FormatCents(newNet, currency),
			valueobject.FormatCents(check.Invoice.TotalCents, currency)))
	}

	return PaymentVerdict{
		Accepted:       true,
		Errors:         []string{},
		NewPaidCents:   newPaid,
		NewRefundCents: newRefunded,
		NewNetCents:    newNet,
	}
}

func reject(reason PaymentRejection, message string) PaymentVerdict {
	return PaymentVerdict{Reason: reason, Errors: []string{message}}
}
