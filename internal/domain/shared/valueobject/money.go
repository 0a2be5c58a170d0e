package valueobject

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
)

// DefaultCurrency is the currency every wholesale amount is expressed in
const DefaultCurrency = USD

var currencySymbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	CAD: "CA$",
}

// Money is an immutable amount in integer minor units (cents).
// Arithmetic never leaves the integer domain.
type Money struct {
	cents    int64
	currency Currency
}

// NewMoney creates Money from cents in the given currency
func NewMoney(cents int64, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{cents: cents, currency: currency}
}

// Cents creates Money in the default currency
func Cents(cents int64) Money {
	return Money{cents: cents, currency: DefaultCurrency}
}

// Zero returns a zero amount in the default currency
func Zero() Money {
	return Cents(0)
}

// Cents returns the amount in minor units
func (m Money) Cents() int64 {
	return m.cents
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive reports whether the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative reports whether the amount is less than zero
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents, currency: m.currency}
}

// Subtract returns m - other
func (m Money) Subtract(other Money) Money {
	return Money{cents: m.cents - other.cents, currency: m.currency}
}

// Negate returns -m
func (m Money) Negate() Money {
	return Money{cents: -m.cents, currency: m.currency}
}

// Abs returns |m|
func (m Money) Abs() Money {
	if m.cents < 0 {
		return m.Negate()
	}
	return m
}

// ClampZero returns max(m, 0)
func (m Money) ClampZero() Money {
	if m.cents < 0 {
		return Money{cents: 0, currency: m.currency}
	}
	return m
}

// Format renders the amount as a grouped currency string, e.g. "$1,234.50"
func (m Money) Format() string {
	return FormatCents(m.cents, m.currency)
}

// String implements fmt.Stringer
func (m Money) String() string {
	return m.Format()
}

// MarshalJSON serializes Money as {"cents": n, "currency": "USD"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Cents    int64    `json:"cents"`
		Currency Currency `json:"currency"`
	}{m.cents, m.currency})
}

// FormatCents formats a minor-unit amount for human-readable messages
func FormatCents(cents int64, currency Currency) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = string(currency) + " "
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	p := message.NewPrinter(language.English)
	whole := float64(cents) / 100
	formatted := p.Sprint(number.Decimal(whole, number.Scale(2)))
	return sign + symbol + strings.TrimSpace(formatted)
}
