package persistence

import (
	"context"
	"time"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements trade.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items").Where("deleted_at IS NULL")
}

// FindByIDForOrder loads a non-deleted invoice of the order
func (r *GormInvoiceRepository) FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*trade.Invoice, error) {
	var model models.InvoiceModel
	if err := r.live(ctx).
		Where("order_id = ? AND id = ?", orderID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder loads all non-deleted invoices of the order, by sequence
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*trade.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.live(ctx).
		Where("order_id = ?", orderID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	invoices := make([]*trade.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain()
	}
	return invoices, nil
}

// MaxSequence returns the highest sequence of the order, soft-deleted invoices included
func (r *GormInvoiceRepository) MaxSequence(ctx context.Context, orderID uuid.UUID) (int, error) {
	var maxSeq int
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error; err != nil {
		return 0, translateError(err)
	}
	return maxSeq, nil
}

// Create inserts an invoice with its items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *trade.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update saves status, payment status and charges
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *trade.Invoice) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]any{
			"status":         invoice.Status,
			"payment_status": invoice.PaymentStatus,
			"subtotal_cents": invoice.SubtotalCents,
			"shipping_cents": invoice.ShippingCents,
			"discount_cents": invoice.DiscountCents,
			"total_cents":    invoice.TotalCents,
			"archived_at":    invoice.ArchivedAt,
			"deleted_at":     invoice.DeletedAt,
			"updated_at":     now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	invoice.UpdatedAt = now
	return nil
}

// Ensure GormInvoiceRepository implements trade.InvoiceRepository
var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
