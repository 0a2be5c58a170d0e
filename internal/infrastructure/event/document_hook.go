package event

import (
	"context"
	"fmt"

	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingDocumentHook records a wholesale document request for every new
// order or shipment. It stands in until an external document service is
// configured.
type LoggingDocumentHook struct {
	logger *zap.Logger
}

// NewLoggingDocumentHook creates a new LoggingDocumentHook
func NewLoggingDocumentHook(log *zap.Logger) *LoggingDocumentHook {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingDocumentHook{logger: log.Named("wholesale_document")}
}

// CreateWholesaleDocument logs the document for a sale order or shipment
func (h *LoggingDocumentHook) CreateWholesaleDocument(ctx context.Context, entity any) error {
	log := logger.WithTraceContext(ctx, h.logger)
	switch e := entity.(type) {
	case *trade.SaleOrder:
		log.Info("wholesale document requested",
			zap.String("document", "sale_order"),
			zap.String("store_id", e.StoreID.String()),
			zap.String("order_id", e.ID.String()),
			zap.String("order_no", e.OrderNo),
			zap.Int64("total_cents", e.TotalCents),
		)
	case *trade.Shipment:
		log.Info("wholesale document requested",
			zap.String("document", "shipment"),
			zap.String("store_id", e.StoreID.String()),
			zap.String("order_id", e.OrderID.String()),
			zap.String("shipment_no", e.ShipmentNo),
			zap.Int("items", len(e.Items)),
		)
	default:
		return fmt.Errorf("wholesale document: unsupported entity %T", entity)
	}
	return nil
}
