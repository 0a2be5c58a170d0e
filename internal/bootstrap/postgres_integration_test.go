//go:build integration

package bootstrap

import (
	"context"
	"testing"

	apptrade "github.com/erp/wholesale/internal/application/trade"
	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPostgres_OrderLifecycleWithStoredChart(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewPostgresDB(t)
	storeID := uuid.New()

	mappings := persistence.NewGormAccountMappingRepository(db)
	for role, code := range map[bookkeeping.AccountRole]string{
		bookkeeping.RoleAccountsReceivable: "1100",
		bookkeeping.RoleDeferredRevenue:    "2400",
		bookkeeping.RoleWholesaleRevenue:   "4000",
		bookkeeping.RoleShippingRevenue:    "4100",
		bookkeeping.RoleDiscount:           "4900",
		bookkeeping.RoleRefund:             "4950",
		bookkeeping.RoleMerchant:           "1010",
	} {
		require.NoError(t, mappings.Save(ctx, &bookkeeping.AccountMapping{ID: uuid.New(), StoreID: storeID, Role: role, AccountCode: code}))
	}
	require.NoError(t, mappings.Save(ctx, &bookkeeping.AccountMapping{
		ID: uuid.New(), StoreID: storeID, Role: bookkeeping.RoleMerchant, PaymentMethod: "card", AccountCode: "1020",
	}))

	cfg := testConfig()
	services, err := NewServices(cfg, db, zaptest.NewLogger(t), Options{})
	require.NoError(t, err)

	order, err := services.SaleOrders.Create(ctx, storeID, uuid.New(), apptrade.CreateSaleOrderRequest{
		CustomerName:  "Acme Hardware",
		ShippingCents: 500,
		Items: []apptrade.ItemInput{{
			SKU:             "BOLT-10",
			Quantity:        decimal.NewFromInt(10),
			UnitPriceCents:  250,
			DiscountPercent: decimal.Zero,
		}},
	})
	require.NoError(t, err)
	_, err = services.SaleOrders.TransitionStatus(ctx, storeID, order.ID, apptrade.TransitionSaleOrderRequest{Status: trade.OrderStatusOpen})
	require.NoError(t, err)

	invoice, err := services.Invoices.Generate(ctx, storeID, order.ID)
	require.NoError(t, err)
	_, err = services.Payments.Create(ctx, storeID, order.ID, apptrade.CreatePaymentRequest{
		InvoiceID:   invoice.ID,
		AmountCents: invoice.TotalCents,
		Method:      trade.PaymentMethodCard,
	})
	require.NoError(t, err)

	shipment, err := services.Shipments.Create(ctx, storeID, order.ID, apptrade.CreateShipmentRequest{ItemIDs: []uuid.UUID{order.Items[0].ID}})
	require.NoError(t, err)
	_, err = services.Shipments.Transition(ctx, storeID, order.ID, shipment.ID, apptrade.TransitionShipmentRequest{Status: trade.ShipmentStatusShipped})
	require.NoError(t, err)

	completed, err := services.SaleOrders.TransitionStatus(ctx, storeID, order.ID, apptrade.TransitionSaleOrderRequest{Status: trade.OrderStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusCompleted, completed.Status)
	assert.False(t, completed.BookkeepingException, string(completed.BookkeepingExceptionPayload))

	entries, err := persistence.NewGormJournalRepository(db).FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, order.ID)
	require.NoError(t, err)
	var merchantCode string
	for _, entry := range entries {
		if entry.EventType != bookkeeping.EventPaymentReceived {
			continue
		}
		for _, line := range entry.Lines {
			if line.AccountRole == bookkeeping.RoleMerchant {
				merchantCode = line.AccountCode
			}
		}
	}
	assert.Equal(t, "1020", merchantCode)
}
