package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("customer_name", "REQUIRED", "customer name is required"), IsValidation},
		{"invalid transition is validation", NewInvalidTransitionError("sale order", "draft", "completed"), IsValidation},
		{"not found", NewNotFoundError("sale order"), IsNotFound},
		{"configuration", NewConfigurationError("ACCOUNT_NOT_MAPPED", "missing"), IsConfiguration},
		{"retry exhausted", NewRetryExhaustedError("create invoice", 3, ErrUniqueViolation), IsRetryExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.check(wrapped))
		})
	}
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("insert payment: %w", &DomainError{Code: "UNIQUE_VIOLATION", Message: "duplicate key"})
	assert.True(t, errors.Is(err, ErrUniqueViolation))
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestNewInvalidTransitionError_NamesBothStates(t *testing.T) {
	err := NewInvalidTransitionError("sale order", "cancelled", "open")
	assert.Contains(t, err.Error(), "cancelled")
	assert.Contains(t, err.Error(), "open")
	assert.Equal(t, "status", err.Field)
}

func TestRetryExhausted_UnwrapsCause(t *testing.T) {
	err := NewRetryExhaustedError("create order", 3, ErrUniqueViolation)
	assert.True(t, errors.Is(err, ErrUniqueViolation))
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestKindOf_NonDomainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsValidation(errors.New("plain")))
}
