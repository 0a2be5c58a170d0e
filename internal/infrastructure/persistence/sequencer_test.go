package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSequencer_NextNumber_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t, false)
	defer mockDB.Close()

	storeID := uuid.New()
	scope := trade.OrderNumberScope(storeID)

	mock.ExpectQuery(`INSERT INTO document_counters .* ON CONFLICT \(scope_key\) DO UPDATE .* RETURNING value`).
		WithArgs(scope.Key(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))

	seq := NewGormSequencer(db.DB, trade.DefaultNumberFormat())
	number, err := seq.NextNumber(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, "SO-000042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSequencer_NextNumber_Error(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t, false)
	defer mockDB.Close()

	mock.ExpectQuery(`INSERT INTO document_counters`).
		WillReturnError(errors.New("connection reset"))

	seq := NewGormSequencer(db.DB, trade.DefaultNumberFormat())
	_, err := seq.NextNumber(context.Background(), trade.OrderNumberScope(uuid.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next sale_order number")
}

func TestGormSequencer_NextNumber_SQLite(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	seq := NewGormSequencer(db, trade.DefaultNumberFormat())

	storeA := trade.OrderNumberScope(uuid.New())
	storeB := trade.OrderNumberScope(uuid.New())
	order := &trade.SaleOrder{}
	order.ID = uuid.New()
	order.StoreID = storeA.StoreID

	first, err := seq.NextNumber(ctx, storeA)
	require.NoError(t, err)
	second, err := seq.NextNumber(ctx, storeA)
	require.NoError(t, err)
	other, err := seq.NextNumber(ctx, storeB)
	require.NoError(t, err)
	shipment, err := seq.NextNumber(ctx, trade.ChildNumberScope(trade.DocumentShipment, order))
	require.NoError(t, err)

	assert.Equal(t, "SO-000001", first)
	assert.Equal(t, "SO-000002", second)
	assert.Equal(t, "SO-000001", other)
	assert.Equal(t, "SHP-000001", shipment)
}
