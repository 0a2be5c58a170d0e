package persistence

import (
	"context"
	"time"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipmentRepository implements trade.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByIDForOrder loads a shipment of the order
func (r *GormShipmentRepository) FindByIDForOrder(ctx context.Context, orderID, id uuid.UUID) (*trade.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ? AND id = ?", orderID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByOrder loads all shipments of the order
func (r *GormShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*trade.Shipment, error) {
	var rows []models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC, shipment_no ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	shipments := make([]*trade.Shipment, len(rows))
	for i := range rows {
		shipments[i] = rows[i].ToDomain()
	}
	return shipments, nil
}

// Create inserts a shipment with its items
func (r *GormShipmentRepository) Create(ctx context.Context, shipment *trade.Shipment) error {
	model := models.ShipmentModelFromDomain(shipment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update saves the header and replaces the item set
func (r *GormShipmentRepository) Update(ctx context.Context, shipment *trade.Shipment) error {
	db := r.db.WithContext(ctx)
	now := time.Now()

	result := db.Model(&models.ShipmentModel{}).
		Where("id = ?", shipment.ID).
		Updates(map[string]any{
			"status":          shipment.Status,
			"carrier":         shipment.Carrier,
			"tracking_number": shipment.TrackingNumber,
			"shipped_at":      shipment.ShippedAt,
			"archived_at":     shipment.ArchivedAt,
			"updated_at":      now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound)
	}

	if err := db.Where("shipment_id = ?", shipment.ID).
		Delete(&models.ShipmentItemModel{}).Error; err != nil {
		return translateError(err)
	}
	items := models.ShipmentModelFromDomain(shipment).Items
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return translateError(err)
		}
	}
	shipment.UpdatedAt = now
	return nil
}

// Ensure GormShipmentRepository implements trade.ShipmentRepository
var _ trade.ShipmentRepository = (*GormShipmentRepository)(nil)
