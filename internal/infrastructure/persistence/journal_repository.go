package persistence

import (
	"context"

	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormJournalRepository implements bookkeeping.JournalRepository using GORM.
// Entries are append-only; the repository never updates or deletes them.
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GormJournalRepository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

func (r *GormJournalRepository) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

// FindByIdempotencyKey returns shared.ErrNotFound when no entry has key
func (r *GormJournalRepository) FindByIdempotencyKey(ctx context.Context, key string) (*bookkeeping.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.withLines(ctx).Where("idempotency_key = ?", key).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByAggregate loads every entry of an aggregate, by posting time
func (r *GormJournalRepository) FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]*bookkeeping.JournalEntry, error) {
	var rows []models.JournalEntryModel
	if err := r.withLines(ctx).
		Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID).
		Order("posted_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toJournalEntries(rows), nil
}

// FindBySource loads entries recorded for one source document
func (r *GormJournalRepository) FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]*bookkeeping.JournalEntry, error) {
	var rows []models.JournalEntryModel
	if err := r.withLines(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("posted_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toJournalEntries(rows), nil
}

// Create inserts an entry with its lines inside a savepoint, so a duplicate
// idempotency key rolls back only the insert and the caller's transaction
// stays usable.
func (r *GormJournalRepository) Create(ctx context.Context, entry *bookkeeping.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	return translateError(err)
}

func toJournalEntries(rows []models.JournalEntryModel) []*bookkeeping.JournalEntry {
	entries := make([]*bookkeeping.JournalEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}

// Ensure GormJournalRepository implements bookkeeping.JournalRepository
var _ bookkeeping.JournalRepository = (*GormJournalRepository)(nil)
