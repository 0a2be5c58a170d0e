package persistence

import (
	"context"
	"time"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountMappingRepository implements bookkeeping.AccountMappingRepository using GORM
type GormAccountMappingRepository struct {
	db *gorm.DB
}

// NewGormAccountMappingRepository creates a new GormAccountMappingRepository
func NewGormAccountMappingRepository(db *gorm.DB) *GormAccountMappingRepository {
	return &GormAccountMappingRepository{db: db}
}

// FindByStore returns every mapping of a store
func (r *GormAccountMappingRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]bookkeeping.AccountMapping, error) {
	var rows []models.AccountMappingModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("role ASC, payment_method ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	mappings := make([]bookkeeping.AccountMapping, len(rows))
	for i := range rows {
		mappings[i] = rows[i].ToDomain()
	}
	return mappings, nil
}

// Save inserts a mapping or repoints the existing one for the same role and method
func (r *GormAccountMappingRepository) Save(ctx context.Context, mapping *bookkeeping.AccountMapping) error {
	model := models.AccountMappingModelFromDomain(mapping)
	model.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "role"}, {Name: "payment_method"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_code", "updated_at"}),
	}).Create(model).Error
	return translateError(err)
}

// GormChartOfAccounts resolves accounts straight from the account_mappings table
type GormChartOfAccounts struct {
	repo *GormAccountMappingRepository
}

// NewGormChartOfAccounts creates a chart backed by the database
func NewGormChartOfAccounts(db *gorm.DB) *GormChartOfAccounts {
	return &GormChartOfAccounts{repo: NewGormAccountMappingRepository(db)}
}

// ResolveAccount implements bookkeeping.ChartOfAccounts
func (c *GormChartOfAccounts) ResolveAccount(ctx context.Context, storeID uuid.UUID, role bookkeeping.AccountRole) (string, error) {
	mappings, err := c.repo.FindByStore(ctx, storeID)
	if err != nil {
		return "", err
	}
	return bookkeeping.ResolveFromMappings(mappings, role, "")
}

// ResolveMerchantAccount implements bookkeeping.ChartOfAccounts
func (c *GormChartOfAccounts) ResolveMerchantAccount(ctx context.Context, storeID uuid.UUID, method string) (string, error) {
	mappings, err := c.repo.FindByStore(ctx, storeID)
	if err != nil {
		return "", err
	}
	return bookkeeping.ResolveFromMappings(mappings, bookkeeping.RoleMerchant, method)
}

var (
	_ bookkeeping.AccountMappingRepository = (*GormAccountMappingRepository)(nil)
	_ bookkeeping.ChartOfAccounts          = (*GormChartOfAccounts)(nil)
)
