package persistence

import (
	"context"
	"fmt"
	"time"

	apptrade "github.com/erp/wholesale/internal/application/trade"
	"github.com/erp/wholesale/internal/domain/trade"
	"gorm.io/gorm"
)

const nextCounterSQL = `INSERT INTO document_counters (scope_key, value, updated_at)
VALUES (?, 1, ?)
ON CONFLICT (scope_key) DO UPDATE
SET value = document_counters.value + 1, updated_at = excluded.updated_at
RETURNING value`

// GormSequencer issues document numbers from the document_counters table.
// Each call is one atomic upsert that commits on its own, so a number is
// never handed out twice even when the caller's transaction rolls back.
type GormSequencer struct {
	db     *gorm.DB
	format trade.NumberFormat
}

// NewGormSequencer creates a sequencer using format
func NewGormSequencer(db *gorm.DB, format trade.NumberFormat) *GormSequencer {
	return &GormSequencer{db: db, format: format}
}

// NextNumber implements apptrade.Sequencer
func (s *GormSequencer) NextNumber(ctx context.Context, scope trade.NumberScope) (string, error) {
	var value int64
	if err := s.db.WithContext(ctx).
		Raw(nextCounterSQL, scope.Key(), time.Now()).
		Scan(&value).Error; err != nil {
		return "", fmt.Errorf("next %s number: %w", scope.Kind, translateError(err))
	}
	return s.format.Format(scope.Kind, value), nil
}

// Ensure GormSequencer implements apptrade.Sequencer
var _ apptrade.Sequencer = (*GormSequencer)(nil)
