package trade

import (
	"context"

	"github.com/erp/wholesale/internal/domain/trade"
)

// Sequencer hands out document numbers. Numbers are unique per scope but
// may skip; a rolled back transaction does not return its number.
type Sequencer interface {
	NextNumber(ctx context.Context, scope trade.NumberScope) (string, error)
}

// DocumentHook creates the external wholesale document for a new order or
// shipment. It runs after commit and its failure does not undo the write.
type DocumentHook interface {
	CreateWholesaleDocument(ctx context.Context, entity any) error
}

// NoopDocumentHook ignores every document
type NoopDocumentHook struct{}

// CreateWholesaleDocument does nothing
func (NoopDocumentHook) CreateWholesaleDocument(context.Context, any) error {
	return nil
}

var _ DocumentHook = NoopDocumentHook{}
