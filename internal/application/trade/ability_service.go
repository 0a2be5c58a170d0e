package trade

import (
	"context"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/google/uuid"
)

// AbilityService answers what an order currently allows. It takes no
// locks, so an answer may be stale by the time a mutation runs.
type AbilityService struct {
	reads TransactionalRepositories
}

// NewAbilityService creates a new AbilityService over unlocked repositories
func NewAbilityService(reads TransactionalRepositories) *AbilityService {
	return &AbilityService{reads: reads}
}

// Compute returns the ability flags keyed by name
func (s *AbilityService) Compute(ctx context.Context, storeID, orderID uuid.UUID) (map[string]bool, error) {
	snapshot, err := loadSnapshot(ctx, s.reads, storeID, orderID)
	if err != nil {
		return nil, err
	}
	return trade.ComputeAbilities(*snapshot).Map(), nil
}

// loadSnapshot reads an order and its dependents without locks
func loadSnapshot(ctx context.Context, reads TransactionalRepositories, storeID, orderID uuid.UUID) (*trade.AbilitySnapshot, error) {
	order, err := reads.SaleOrders().FindByIDForStore(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	invoices, err := reads.Invoices().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	shipments, err := reads.Shipments().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := reads.Payments().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &trade.AbilitySnapshot{Order: order, Invoices: invoices, Shipments: shipments, Payments: payments}, nil
}
