package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("defaults empty currency", func(t *testing.T) {
		m := NewMoney(1050, "")
		assert.Equal(t, DefaultCurrency, m.Currency())
		assert.Equal(t, int64(1050), m.Cents())
	})

	t.Run("keeps explicit currency", func(t *testing.T) {
		m := NewMoney(200, EUR)
		assert.Equal(t, EUR, m.Currency())
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := Cents(1000)
	b := Cents(250)

	assert.Equal(t, int64(1250), a.Add(b).Cents())
	assert.Equal(t, int64(750), a.Subtract(b).Cents())
	assert.Equal(t, int64(-1000), a.Negate().Cents())
	assert.Equal(t, int64(1000), a.Negate().Abs().Cents())
	assert.Equal(t, int64(0), b.Subtract(a).ClampZero().Cents())
	assert.Equal(t, int64(250), b.ClampZero().Cents())
}

func TestMoney_Predicates(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		zero     bool
		positive bool
		negative bool
	}{
		{"zero", 0, true, false, false},
		{"positive", 1, false, true, false},
		{"negative", -1, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Cents(tt.cents)
			assert.Equal(t, tt.zero, m.IsZero())
			assert.Equal(t, tt.positive, m.IsPositive())
			assert.Equal(t, tt.negative, m.IsNegative())
		})
	}
}

func TestFormatCents(t *testing.T) {
	t.Run("formats whole dollars with two decimals", func(t *testing.T) {
		s := FormatCents(10000, USD)
		assert.Contains(t, s, "$")
		assert.Contains(t, s, "100.00")
	})

	t.Run("formats negative amounts with a leading sign", func(t *testing.T) {
		s := FormatCents(-550, USD)
		assert.Equal(t, "-", s[:1])
		assert.Contains(t, s, "5.50")
	})

	t.Run("unknown currency falls back to code", func(t *testing.T) {
		s := FormatCents(100, Currency("CHF"))
		assert.Contains(t, s, "CHF")
		assert.Contains(t, s, "1.00")
	})
}

func TestMoney_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Cents(1234))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(1234), out["cents"])
	assert.Equal(t, "USD", out["currency"])
}
