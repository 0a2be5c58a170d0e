package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormShipmentRepository_Lifecycle(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormShipmentRepository(db)

	order := createOpenOrder(t, db)
	inv := createInvoice(t, db, order, 1)
	sc := trade.NewShipmentContext([]*trade.Invoice{inv}, nil, uuid.Nil)

	shipment, err := trade.NewShipment(order, "SHP-000001", []uuid.UUID{order.Items[0].ID}, "UPS", "1Z999", sc)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, shipment))

	found, err := repo.FindByIDForOrder(ctx, order.ID, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.ShipmentStatusOpen, found.Status)
	assert.Equal(t, []uuid.UUID{order.Items[0].ID}, found.OrderItemIDs())

	// replace the item set
	require.NoError(t, found.Update(order, "FedEx", "7788", []uuid.UUID{order.Items[1].ID}, nil))
	require.NoError(t, repo.Update(ctx, found))

	require.NoError(t, found.Ship(order, sc, time.Now()))
	require.NoError(t, repo.Update(ctx, found))

	shipments, err := repo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	assert.Equal(t, trade.ShipmentStatusShipped, shipments[0].Status)
	assert.Equal(t, "FedEx", shipments[0].Carrier)
	assert.NotNil(t, shipments[0].ShippedAt)
	assert.Equal(t, []uuid.UUID{order.Items[1].ID}, shipments[0].OrderItemIDs())

	_, err = repo.FindByIDForOrder(ctx, uuid.New(), shipment.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestGormShipmentRepository_DuplicateNumber(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormShipmentRepository(db)

	order := createOpenOrder(t, db)
	inv := createInvoice(t, db, order, 1)
	sc := trade.NewShipmentContext([]*trade.Invoice{inv}, nil, uuid.Nil)

	first, err := trade.NewShipment(order, "SHP-000001", []uuid.UUID{order.Items[0].ID}, "", "", sc)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	dup, err := trade.NewShipment(order, "SHP-000001", []uuid.UUID{order.Items[1].ID}, "", "", sc)
	require.NoError(t, err)
	assert.True(t, shared.IsUniqueViolation(repo.Create(ctx, dup)))
}
