package persistence

import (
	"context"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// lineNoOffset parks line numbers out of the way while items are renumbered
const lineNoOffset = 1_000_000

// GormSaleOrderRepository implements trade.SaleOrderRepository using GORM
type GormSaleOrderRepository struct {
	db *gorm.DB
}

// NewGormSaleOrderRepository creates a new GormSaleOrderRepository
func NewGormSaleOrderRepository(db *gorm.DB) *GormSaleOrderRepository {
	return &GormSaleOrderRepository{db: db}
}

func (r *GormSaleOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByIDForStore finds a sale order by ID within a store
func (r *GormSaleOrderRepository) FindByIDForStore(ctx context.Context, storeID, id uuid.UUID) (*trade.SaleOrder, error) {
	var model models.SaleOrderModel
	if err := r.withItems(ctx).
		Where("store_id = ? AND id = ?", storeID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByID finds a sale order by its ID
func (r *GormSaleOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SaleOrder, error) {
	var model models.SaleOrderModel
	if err := r.withItems(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts the order header and its items
func (r *GormSaleOrderRepository) Create(ctx context.Context, order *trade.SaleOrder) error {
	model := models.SaleOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update saves the header with an optimistic version check and bumps the version
func (r *GormSaleOrderRepository) Update(ctx context.Context, order *trade.SaleOrder) error {
	model := models.SaleOrderModelFromDomain(order)
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.SaleOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"status":                        model.Status,
			"customer_name":                 model.CustomerName,
			"customer_email":                model.CustomerEmail,
			"customer_phone":                model.CustomerPhone,
			"shipping_address":              model.ShippingAddress,
			"payment_terms":                 model.PaymentTerms,
			"notes":                         model.Notes,
			"subtotal_cents":                model.SubtotalCents,
			"shipping_cents":                model.ShippingCents,
			"discount_cents":                model.DiscountCents,
			"total_cents":                   model.TotalCents,
			"date_completed":                model.DateCompleted,
			"completed_at":                  model.CompletedAt,
			"bookkeeping_exception":         model.BookkeepingException,
			"bookkeeping_exception_payload": model.BookkeepingExceptionPayload,
			"bookkeeping_last_checked_at":   model.BookkeepingLastCheckedAt,
			"version":                       order.Version + 1,
			"updated_at":                    now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	order.IncrementVersion()
	order.UpdatedAt = now
	return nil
}

// SyncItems deletes removed items, then writes the remaining items in two
// phases: every surviving row first moves to line_no + lineNoOffset, then
// each row takes its final number. The header is saved last.
func (r *GormSaleOrderRepository) SyncItems(ctx context.Context, order *trade.SaleOrder, removed []uuid.UUID) error {
	db := r.db.WithContext(ctx)

	if len(removed) > 0 {
		if err := db.Where("order_id = ? AND id IN ?", order.ID, removed).
			Delete(&models.SaleOrderItemModel{}).Error; err != nil {
			return translateError(err)
		}
	}

	var existing []uuid.UUID
	if err := db.Model(&models.SaleOrderItemModel{}).
		Where("order_id = ?", order.ID).
		Pluck("id", &existing).Error; err != nil {
		return translateError(err)
	}
	stored := make(map[uuid.UUID]bool, len(existing))
	for _, id := range existing {
		stored[id] = true
	}

	if len(existing) > 0 {
		if err := db.Model(&models.SaleOrderItemModel{}).
			Where("order_id = ?", order.ID).
			Update("line_no", gorm.Expr("line_no + ?", lineNoOffset)).Error; err != nil {
			return translateError(err)
		}
	}

	for i := range order.Items {
		item := models.SaleOrderItemModelFromDomain(&order.Items[i])
		item.OrderID = order.ID
		if !stored[item.ID] {
			if err := db.Create(item).Error; err != nil {
				return translateError(err)
			}
			continue
		}
		if err := db.Model(&models.SaleOrderItemModel{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{
				"line_no":          item.LineNo,
				"sku":              item.SKU,
				"description":      item.Description,
				"quantity":         item.Quantity,
				"unit_price_cents": item.UnitPriceCents,
				"discount_percent": item.DiscountPercent,
				"total_cents":      item.TotalCents,
				"updated_at":       item.UpdatedAt,
			}).Error; err != nil {
			return translateError(err)
		}
	}

	return r.Update(ctx, order)
}

// Ensure GormSaleOrderRepository implements trade.SaleOrderRepository
var _ trade.SaleOrderRepository = (*GormSaleOrderRepository)(nil)
