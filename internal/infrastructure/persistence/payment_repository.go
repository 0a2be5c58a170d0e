package persistence

import (
	"context"
	"time"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements trade.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByIDForOrder loads a payment of the order, deleted or not
func (r *GormPaymentRepository) FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*trade.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND id = ?", orderID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder loads every payment of the order, soft-deleted ones included
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*trade.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("paid_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	payments := make([]*trade.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *trade.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update saves the soft-delete marker and note
func (r *GormPaymentRepository) Update(ctx context.Context, payment *trade.Payment) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"deleted_at": payment.DeletedAt,
			"note":       payment.Note,
			"updated_at": now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}
	payment.UpdatedAt = now
	return nil
}

// Ensure GormPaymentRepository implements trade.PaymentRepository
var _ trade.PaymentRepository = (*GormPaymentRepository)(nil)
