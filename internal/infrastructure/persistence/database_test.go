package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database over a sqlmock connection. With
// monitorPings the ping gorm.Open sends is expected and consumed here.
func newMockDatabase(t *testing.T, monitorPings bool) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)
	if monitorPings {
		mock.ExpectPing()
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_CompletedOrderIDs(t *testing.T) {
	t.Run("scopes to the store and completed status", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t, false)
		defer mockDB.Close()

		storeID := uuid.New()
		first, second := uuid.New(), uuid.New()

		mock.ExpectQuery(`SELECT "id" FROM "sale_orders" WHERE store_id = \$1 AND status = \$2 ORDER BY completed_at ASC`).
			WithArgs(storeID, "COMPLETED").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first.String()).AddRow(second.String()))

		ids, err := db.CompletedOrderIDs(context.Background(), storeID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first, second}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty store", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t, false)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT "id" FROM "sale_orders"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		ids, err := db.CompletedOrderIDs(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestDatabase_ForStore(t *testing.T) {
	t.Run("adds the store predicate to further conditions", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t, false)
		defer mockDB.Close()

		storeID := uuid.New()
		type Entity struct {
			ID      uint
			StoreID uuid.UUID
			Status  string
		}

		mock.ExpectQuery(`SELECT \* FROM "entities" WHERE store_id = \$1 AND status = \$2`).
			WithArgs(storeID, "OPEN").
			WillReturnRows(sqlmock.NewRows([]string{"id", "store_id", "status"}).AddRow(1, storeID, "OPEN"))

		var results []Entity
		err := db.ForStore(context.Background(), storeID).Where("status = ?", "OPEN").Find(&results).Error
		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("panics on nil store", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t, false)
		defer mockDB.Close()

		assert.Panics(t, func() {
			db.ForStore(context.Background(), uuid.Nil)
		})
	})
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t, true)
	defer mockDB.Close()

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t, false)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
