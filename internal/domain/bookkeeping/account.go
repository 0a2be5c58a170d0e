package bookkeeping

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRole names the purpose an account plays in sale order postings
type AccountRole string

const (
	RoleAccountsReceivable AccountRole = "accounts_receivable"
	RoleDeferredRevenue    AccountRole = "deferred_revenue"
	RoleWholesaleRevenue   AccountRole = "wholesale_revenue"
	RoleShippingRevenue    AccountRole = "shipping_revenue"
	RoleDiscount           AccountRole = "discount"
	RoleRefund             AccountRole = "refund"
	RoleMerchant           AccountRole = "merchant"
)

// IsValid checks if the role is known
func (r AccountRole) IsValid() bool {
	switch r {
	case RoleAccountsReceivable, RoleDeferredRevenue, RoleWholesaleRevenue,
		RoleShippingRevenue, RoleDiscount, RoleRefund, RoleMerchant:
		return true
	}
	return false
}

// String returns the string representation of AccountRole
func (r AccountRole) String() string {
	return string(r)
}

// ChartOfAccounts resolves account roles to account codes for a store
type ChartOfAccounts interface {
	// ResolveAccount returns the code mapped to role.
	// A missing mapping is a configuration error.
	ResolveAccount(ctx context.Context, storeID uuid.UUID, role AccountRole) (string, error)

	// ResolveMerchantAccount returns the merchant code for a payment method,
	// falling back to the store's general merchant mapping.
	ResolveMerchantAccount(ctx context.Context, storeID uuid.UUID, method string) (string, error)
}

// AccountMapping binds a role, and for merchants optionally a payment
// method, to an account code in one store's chart.
type AccountMapping struct {
	ID            uuid.UUID
	StoreID       uuid.UUID
	Role          AccountRole
	PaymentMethod string
	AccountCode   string
}

// NewAccountMapping creates a validated mapping
func NewAccountMapping(storeID uuid.UUID, role AccountRole, method, code string) (*AccountMapping, error) {
	if !role.IsValid() {
		return nil, shared.NewValidationError("role", "INVALID_ROLE", fmt.Sprintf("Unknown account role %q", role))
	}
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewValidationError("account_code", "REQUIRED", "Account code is required")
	}
	if method != "" && role != RoleMerchant {
		return nil, shared.NewValidationError("payment_method", "INVALID_MAPPING", "Only merchant mappings may be keyed by payment method")
	}
	return &AccountMapping{
		ID:            uuid.New(),
		StoreID:       storeID,
		Role:          role,
		PaymentMethod: strings.ToLower(method),
		AccountCode:   code,
	}, nil
}

// MissingAccountError reports an unmapped role
func MissingAccountError(role AccountRole, method string) error {
	if method != "" {
		return shared.NewConfigurationError("CONFIGURATION_ERROR",
			fmt.Sprintf("No account mapped for role %s (method %s)", role, method))
	}
	return shared.NewConfigurationError("CONFIGURATION_ERROR", fmt.Sprintf("No account mapped for role %s", role))
}

// MappingChart is a ChartOfAccounts over an in-memory mapping set
type MappingChart struct {
	byStore map[uuid.UUID][]AccountMapping
}

// NewMappingChart indexes mappings by store
func NewMappingChart(mappings []AccountMapping) *MappingChart {
	c := &MappingChart{byStore: make(map[uuid.UUID][]AccountMapping)}
	for _, m := range mappings {
		c.byStore[m.StoreID] = append(c.byStore[m.StoreID], m)
	}
	return c
}

// ResolveAccount implements ChartOfAccounts
func (c *MappingChart) ResolveAccount(_ context.Context, storeID uuid.UUID, role AccountRole) (string, error) {
	return ResolveFromMappings(c.byStore[storeID], role, "")
}

// ResolveMerchantAccount implements ChartOfAccounts
func (c *MappingChart) ResolveMerchantAccount(_ context.Context, storeID uuid.UUID, method string) (string, error) {
	return ResolveFromMappings(c.byStore[storeID], RoleMerchant, method)
}

// ResolveFromMappings picks the code for role from one store's mappings.
// A method-specific merchant mapping wins over the general one.
func ResolveFromMappings(mappings []AccountMapping, role AccountRole, method string) (string, error) {
	method = strings.ToLower(method)
	var general string
	for _, m := range mappings {
		if m.Role != role {
			continue
		}
		if method != "" && m.PaymentMethod == method {
			return m.AccountCode, nil
		}
		if m.PaymentMethod == "" {
			general = m.AccountCode
		}
	}
	if general == "" {
		return "", MissingAccountError(role, method)
	}
	return general, nil
}
