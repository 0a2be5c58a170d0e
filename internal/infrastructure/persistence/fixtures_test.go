package persistence

import (
	"context"
	"testing"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func itemDraft(sku string, qty int64, priceCents int64) trade.ItemDraft {
	return trade.ItemDraft{
		SKU:             sku,
		Description:     sku + " widget",
		Quantity:        decimal.NewFromInt(qty),
		UnitPriceCents:  priceCents,
		DiscountPercent: decimal.Zero,
	}
}

// createOpenOrder persists an Open order with two lines
func createOpenOrder(t *testing.T, db *gorm.DB) *trade.SaleOrder {
	t.Helper()
	ctx := context.Background()

	order, err := trade.NewSaleOrder(uuid.New(), uuid.New(), "SO-"+uuid.NewString()[:8],
		trade.Customer{Name: "Acme Hardware", Email: "buyer@acme.test"}, "NET30")
	require.NoError(t, err)
	_, err = order.SyncItems([]trade.ItemDraft{
		itemDraft("BOLT-10", 10, 250),
		itemDraft("NUT-10", 4, 100),
	}, trade.ItemConstraints{})
	require.NoError(t, err)
	require.NoError(t, order.Open())

	repo := NewGormSaleOrderRepository(db)
	require.NoError(t, repo.Create(ctx, order))
	return order
}

func createInvoice(t *testing.T, db *gorm.DB, order *trade.SaleOrder, sequence int) *trade.Invoice {
	t.Helper()
	lines, err := trade.AllocateInvoiceLines(order, nil, trade.FullInvoiceRequest(order))
	require.NoError(t, err)
	inv, err := trade.NewInvoice(order, sequence, lines, 0, 0)
	require.NoError(t, err)
	require.NoError(t, NewGormInvoiceRepository(db).Create(context.Background(), inv))
	return inv
}
