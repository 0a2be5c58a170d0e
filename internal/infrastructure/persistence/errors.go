package persistence

import (
	"errors"
	"strings"

	"github.com/erp/wholesale/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver and GORM errors onto domain sentinels.
// gorm.ErrDuplicatedKey needs TranslateError in the gorm.Config; the
// message check covers connections opened without it.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(shared.ErrUniqueViolation, err)
	case isUniqueMessage(err.Error()):
		return errors.Join(shared.ErrUniqueViolation, err)
	}
	return err
}

func isUniqueMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "sqlstate 23505")
}
