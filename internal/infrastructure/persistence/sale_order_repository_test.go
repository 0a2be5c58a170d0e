package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSaleOrderRepository_CreateAndFind(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormSaleOrderRepository(db)

	order := createOpenOrder(t, db)

	found, err := repo.FindByIDForStore(ctx, order.StoreID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNo, found.OrderNo)
	assert.Equal(t, trade.OrderStatusOpen, found.Status)
	assert.Equal(t, "Acme Hardware", found.Customer.Name)
	assert.Equal(t, int64(2900), found.TotalCents)
	require.Len(t, found.Items, 2)
	assert.Equal(t, 1, found.Items[0].LineNo)
	assert.Equal(t, "BOLT-10", found.Items[0].SKU)
	assert.True(t, found.Items[0].Quantity.Equal(decimal.NewFromInt(10)))

	_, err = repo.FindByIDForStore(ctx, uuid.New(), order.ID)
	assert.True(t, shared.IsNotFound(err))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}

func TestGormSaleOrderRepository_DuplicateOrderNumber(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormSaleOrderRepository(db)

	first := createOpenOrder(t, db)
	dup, err := trade.NewSaleOrder(first.StoreID, uuid.New(), first.OrderNo, trade.Customer{Name: "Other"}, "")
	require.NoError(t, err)

	err = repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, shared.IsUniqueViolation(err))
}

func TestGormSaleOrderRepository_Update(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormSaleOrderRepository(db)

	order := createOpenOrder(t, db)
	stale, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	checked := time.Now()
	order.RecordBookkeepingVerdict(true, json.RawMessage(`{"ok":false}`), checked)
	require.NoError(t, repo.Update(ctx, order))
	assert.Equal(t, stale.Version+1, order.Version)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.BookkeepingException)
	assert.JSONEq(t, `{"ok":false}`, string(reloaded.BookkeepingExceptionPayload))
	assert.Equal(t, order.Version, reloaded.Version)

	err = repo.Update(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestGormSaleOrderRepository_SyncItems(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormSaleOrderRepository(db)

	order := createOpenOrder(t, db)
	bolt := order.Items[0]
	nut := order.Items[1]

	// swap the two lines, drop nothing, add a third
	nutDraft := itemDraft("NUT-10", 6, 100)
	nutDraft.ID = &nut.ID
	boltDraft := itemDraft("BOLT-10", 10, 250)
	boltDraft.ID = &bolt.ID
	removed, err := order.SyncItems([]trade.ItemDraft{nutDraft, boltDraft, itemDraft("WASHER", 1, 5)}, trade.ItemConstraints{})
	require.NoError(t, err)
	require.Empty(t, removed)
	require.NoError(t, repo.SyncItems(ctx, order, removed))

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 3)
	assert.Equal(t, nut.ID, reloaded.Items[0].ID)
	assert.True(t, reloaded.Items[0].Quantity.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, bolt.ID, reloaded.Items[1].ID)
	assert.Equal(t, "WASHER", reloaded.Items[2].SKU)
	assert.Equal(t, int64(600+2500+5), reloaded.TotalCents)

	// remove the bolt line
	washerDraft := itemDraft("WASHER", 1, 5)
	washerDraft.ID = &reloaded.Items[2].ID
	removed, err = reloaded.SyncItems([]trade.ItemDraft{washerDraft}, trade.ItemConstraints{})
	require.NoError(t, err)
	require.Len(t, removed, 2)
	require.NoError(t, repo.SyncItems(ctx, reloaded, removed))

	final, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, final.Items, 1)
	assert.Equal(t, 1, final.Items[0].LineNo)
	assert.Equal(t, "WASHER", final.Items[0].SKU)
}
