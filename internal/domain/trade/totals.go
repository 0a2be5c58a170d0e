package trade

import (
	"fmt"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals is the monetary summary shared by orders and invoices.
// TotalCents is always SubtotalCents + ShippingCents - DiscountCents.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// ComputeTotals derives the total and rejects any negative component or result.
func ComputeTotals(subtotalCents, shippingCents, discountCents int64) (Totals, error) {
	if subtotalCents < 0 {
		return Totals{}, shared.NewValidationError("subtotal_cents", "NEGATIVE_AMOUNT", "Subtotal cannot be negative")
	}
	if shippingCents < 0 {
		return Totals{}, shared.NewValidationError("shipping_cents", "NEGATIVE_AMOUNT", "Shipping cannot be negative")
	}
	if discountCents < 0 {
		return Totals{}, shared.NewValidationError("discount_cents", "NEGATIVE_AMOUNT", "Discount cannot be negative")
	}
	total := subtotalCents + shippingCents - discountCents
	if total < 0 {
		return Totals{}, shared.NewValidationError("discount_cents", "NEGATIVE_TOTAL",
			fmt.Sprintf("Discount of %d cents exceeds subtotal plus shipping of %d cents", discountCents, subtotalCents+shippingCents))
	}
	return Totals{
		SubtotalCents: subtotalCents,
		ShippingCents: shippingCents,
		DiscountCents: discountCents,
		TotalCents:    total,
	}, nil
}

// Validate re-checks a stored Totals value.
func (t Totals) Validate() error {
	computed, err := ComputeTotals(t.SubtotalCents, t.ShippingCents, t.DiscountCents)
	if err != nil {
		return err
	}
	if computed.TotalCents != t.TotalCents {
		return shared.NewValidationError("total_cents", "TOTAL_MISMATCH",
			fmt.Sprintf("Total %d does not equal subtotal + shipping - discount (%d)", t.TotalCents, computed.TotalCents))
	}
	return nil
}

// LineTotal computes quantity × unit price less a percentage discount,
// rounded half away from zero to whole cents.
func LineTotal(quantity decimal.Decimal, unitPriceCents int64, discountPercent decimal.Decimal) int64 {
	gross := quantity.Mul(decimal.NewFromInt(unitPriceCents))
	discount := gross.Mul(discountPercent).Div(hundred)
	return gross.Sub(discount).Round(0).IntPart()
}

// ValidateLine checks the inputs to LineTotal.
func ValidateLine(quantity decimal.Decimal, unitPriceCents int64, discountPercent decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("quantity", "INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPriceCents < 0 {
		return shared.NewValidationError("unit_price_cents", "INVALID_PRICE", "Unit price cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return shared.NewValidationError("discount_percent", "INVALID_DISCOUNT_PERCENT", "Discount percent must be between 0 and 100")
	}
	return nil
}

// SumLineTotals adds line totals.
func SumLineTotals(totals ...int64) int64 {
	var sum int64
	for _, t := range totals {
		sum += t
	}
	return sum
}
