package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestEntry(t *testing.T, orderID, sourceID uuid.UUID, event bookkeeping.EventType, cents int64, postedAt time.Time) *bookkeeping.JournalEntry {
	t.Helper()
	entry, err := bookkeeping.NewJournalEntry(bookkeeping.EntrySource{
		StoreID:       uuid.New(),
		AggregateType: bookkeeping.AggregateSaleOrder,
		AggregateID:   orderID,
		EventType:     event,
		SourceType:    bookkeeping.SourcePayment,
		SourceID:      sourceID,
	}, bookkeeping.IdempotencyKey(event, sourceID, "v1"), []bookkeeping.JournalLine{
		{AccountCode: "1010", AccountRole: bookkeeping.RoleMerchant, PostingType: bookkeeping.PostingDebit, AmountCents: cents},
		{AccountCode: "1200", AccountRole: bookkeeping.RoleAccountsReceivable, PostingType: bookkeeping.PostingCredit, AmountCents: cents},
	}, postedAt)
	require.NoError(t, err)
	return entry
}

func TestGormJournalRepository_CreateAndFind(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormJournalRepository(db)

	orderID := uuid.New()
	paymentID := uuid.New()
	later := newTestEntry(t, orderID, uuid.New(), bookkeeping.EventPaymentReceived, 300, time.Now())
	earlier := newTestEntry(t, orderID, paymentID, bookkeeping.EventPaymentReceived, 500, time.Now().Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, earlier))

	entries, err := repo.FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, earlier.ID, entries[0].ID)
	require.Len(t, entries[0].Lines, 2)
	assert.Equal(t, bookkeeping.PostingDebit, entries[0].Lines[0].PostingType)
	assert.Equal(t, int64(500), entries[0].DebitCents())

	byKey, err := repo.FindByIdempotencyKey(ctx, earlier.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, byKey.ID)

	bySource, err := repo.FindBySource(ctx, bookkeeping.SourcePayment, paymentID)
	require.NoError(t, err)
	require.Len(t, bySource, 1)

	_, err = repo.FindByIdempotencyKey(ctx, "missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestGormJournalRepository_DuplicateKeyKeepsTransactionUsable(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	orderID := uuid.New()
	paymentID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		repo := NewGormJournalRepository(tx)
		if err := repo.Create(ctx, newTestEntry(t, orderID, paymentID, bookkeeping.EventPaymentReceived, 500, time.Now())); err != nil {
			return err
		}

		dupErr := repo.Create(ctx, newTestEntry(t, orderID, paymentID, bookkeeping.EventPaymentReceived, 500, time.Now()))
		assert.True(t, shared.IsUniqueViolation(dupErr))

		return repo.Create(ctx, newTestEntry(t, orderID, uuid.New(), bookkeeping.EventPaymentReceived, 100, time.Now()))
	})
	require.NoError(t, err)

	entries, err := NewGormJournalRepository(db).FindByAggregate(ctx, bookkeeping.AggregateSaleOrder, orderID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
