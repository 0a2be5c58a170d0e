package trade

import (
	"testing"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		subtotal  int64
		shipping  int64
		discount  int64
		wantTotal int64
		wantField string
	}{
		{"plain subtotal", 10000, 0, 0, 10000, ""},
		{"shipping and discount", 10000, 1500, 2500, 9000, ""},
		{"discount equals subtotal plus shipping", 1000, 500, 1500, 0, ""},
		{"negative total", 1000, 0, 1001, 0, "discount_cents"},
		{"negative shipping", 1000, -1, 0, 0, "shipping_cents"},
		{"negative discount", 1000, 0, -1, 0, "discount_cents"},
		{"negative subtotal", -1, 0, 0, 0, "subtotal_cents"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := ComputeTotals(tt.subtotal, tt.shipping, tt.discount)
			if tt.wantField != "" {
				require.Error(t, err)
				var de *shared.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, tt.wantField, de.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, totals.TotalCents)
			assert.Equal(t, totals.SubtotalCents+totals.ShippingCents-totals.DiscountCents, totals.TotalCents)
		})
	}
}

func TestTotals_Validate(t *testing.T) {
	assert.NoError(t, Totals{SubtotalCents: 100, ShippingCents: 10, DiscountCents: 5, TotalCents: 105}.Validate())
	assert.Error(t, Totals{SubtotalCents: 100, TotalCents: 99}.Validate())
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		qty      string
		price    int64
		discount string
		want     int64
	}{
		{"whole quantity", "3", 1250, "0", 3750},
		{"fractional quantity rounds half up", "0.5", 333, "0", 167},
		{"percent discount", "2", 1000, "15", 1700},
		{"full discount", "4", 999, "100", 0},
		{"fractional discount", "1", 999, "12.5", 874},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(decimal.RequireFromString(tt.qty), tt.price, decimal.RequireFromString(tt.discount))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateLine(t *testing.T) {
	assert.NoError(t, ValidateLine(decimal.NewFromInt(1), 0, decimal.Zero))
	assert.Error(t, ValidateLine(decimal.Zero, 100, decimal.Zero))
	assert.Error(t, ValidateLine(decimal.NewFromInt(1), -5, decimal.Zero))
	assert.Error(t, ValidateLine(decimal.NewFromInt(1), 100, decimal.NewFromInt(-1)))
	assert.Error(t, ValidateLine(decimal.NewFromInt(1), 100, decimal.NewFromInt(101)))
}
