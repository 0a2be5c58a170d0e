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

func TestGormInvoiceRepository_CreateAndFind(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormInvoiceRepository(db)

	order := createOpenOrder(t, db)
	inv := createInvoice(t, db, order, 1)

	found, err := repo.FindByIDForOrder(ctx, order.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.InvoiceCode(order.OrderNo, 1), found.Code)
	assert.Equal(t, trade.InvoiceStatusActive, found.Status)
	assert.Equal(t, trade.PaymentStatusUnpaid, found.PaymentStatus)
	assert.Equal(t, order.TotalCents, found.TotalCents)
	assert.Len(t, found.Items, 2)

	_, err = repo.FindByIDForOrder(ctx, uuid.New(), inv.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestGormInvoiceRepository_SoftDeletedKeepsSequence(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormInvoiceRepository(db)

	order := createOpenOrder(t, db)
	first := createInvoice(t, db, order, 1)
	second := createInvoice(t, db, order, 2)

	now := time.Now()
	second.DeletedAt = &now
	require.NoError(t, repo.Update(ctx, second))

	invoices, err := repo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, first.ID, invoices[0].ID)

	_, err = repo.FindByIDForOrder(ctx, order.ID, second.ID)
	assert.True(t, shared.IsNotFound(err))

	maxSeq, err := repo.MaxSequence(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, maxSeq)

	none, err := repo.MaxSequence(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestGormInvoiceRepository_DuplicateSequence(t *testing.T) {
	db := persistencetest.NewDB(t)
	order := createOpenOrder(t, db)
	createInvoice(t, db, order, 1)

	lines, err := trade.AllocateInvoiceLines(order, nil, trade.FullInvoiceRequest(order))
	require.NoError(t, err)
	dup, err := trade.NewInvoice(order, 1, lines, 0, 0)
	require.NoError(t, err)

	err = NewGormInvoiceRepository(db).Create(context.Background(), dup)
	assert.True(t, shared.IsUniqueViolation(err))
}

func TestGormInvoiceRepository_UpdateStatus(t *testing.T) {
	db := persistencetest.NewDB(t)
	ctx := context.Background()
	repo := NewGormInvoiceRepository(db)

	order := createOpenOrder(t, db)
	inv := createInvoice(t, db, order, 1)

	require.True(t, inv.ArchiveForCancellation(0, time.Now()))
	require.NoError(t, repo.Update(ctx, inv))

	found, err := repo.FindByIDForOrder(ctx, order.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.InvoiceStatusArchived, found.Status)
	assert.NotNil(t, found.ArchivedAt)

	missing := *inv
	missing.ID = uuid.New()
	assert.True(t, shared.IsNotFound(repo.Update(ctx, &missing)))
}
