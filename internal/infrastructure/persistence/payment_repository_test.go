package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentRepository_SoftDeleteStaysVisible(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormPaymentRepository(db)

	order := createOpenOrder(t, db)
	inv := createInvoice(t, db, order, 1)

	paidAt := time.Now().Add(-time.Hour)
	deposit, err := trade.NewPayment(order, inv, "PAY-000001", 1000, trade.PaymentMethodCard, true, paidAt, "deposit")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, deposit))

	refund, err := trade.NewPayment(order, inv, "PAY-000002", -200, trade.PaymentMethodCard, false, time.Now(), "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, refund))

	require.NoError(t, refund.SoftDelete(time.Now()))
	require.NoError(t, repo.Update(ctx, refund))

	payments, err := repo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, deposit.ID, payments[0].ID)
	assert.True(t, payments[0].IsDeposit)
	assert.True(t, payments[1].IsDeleted())
	assert.True(t, payments[1].IsRefund())

	found, err := repo.FindByIDForOrder(ctx, order.ID, refund.ID)
	require.NoError(t, err)
	assert.True(t, found.IsDeleted())
	assert.Equal(t, int64(-200), found.AmountCents)
}
