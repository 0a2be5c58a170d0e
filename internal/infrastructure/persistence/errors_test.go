package persistence

import (
	"errors"
	"testing"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		found  bool
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, found: true},
		{name: "translated duplicate", err: gorm.ErrDuplicatedKey, unique: true},
		{name: "postgres duplicate", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_sale_order_store_number" (SQLSTATE 23505)`), unique: true},
		{name: "sqlite duplicate", err: errors.New("UNIQUE constraint failed: sale_orders.order_no"), unique: true},
		{name: "other", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.Equal(t, tt.unique, shared.IsUniqueViolation(got))
			assert.Equal(t, tt.found, shared.IsNotFound(got))
		})
	}

	assert.NoError(t, translateError(nil))
}
