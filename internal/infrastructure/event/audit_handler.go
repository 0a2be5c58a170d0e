package event

import (
	"context"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SaleOrderAuditHandler writes one structured log line per sale order
// lifecycle event.
type SaleOrderAuditHandler struct {
	logger *zap.Logger
}

// NewSaleOrderAuditHandler creates a new SaleOrderAuditHandler
func NewSaleOrderAuditHandler(log *zap.Logger) *SaleOrderAuditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SaleOrderAuditHandler{logger: log.Named("sale_order_audit")}
}

// EventTypes returns the sale order event types
func (h *SaleOrderAuditHandler) EventTypes() []string {
	return []string{
		trade.EventTypeSaleOrderCreated,
		trade.EventTypeSaleOrderStatusChanged,
		trade.EventTypeInvoiceCreated,
		trade.EventTypeInvoiceArchived,
		trade.EventTypeShipmentStatusChanged,
		trade.EventTypePaymentRecorded,
		trade.EventTypePaymentDeleted,
	}
}

// Handle logs the event with its type-specific fields
func (h *SaleOrderAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("store_id", event.StoreID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	fields = append(fields, eventFields(event)...)

	logger.WithTraceContext(ctx, h.logger).Info("sale order event", fields...)
	return nil
}

func eventFields(event shared.DomainEvent) []zap.Field {
	switch e := event.(type) {
	case *trade.SaleOrderCreatedEvent:
		return []zap.Field{
			zap.String("order_no", e.OrderNo),
			zap.String("customer_name", e.CustomerName),
		}
	case *trade.SaleOrderStatusChangedEvent:
		return []zap.Field{
			zap.String("order_no", e.OrderNo),
			zap.String("from_status", string(e.FromStatus)),
			zap.String("to_status", string(e.ToStatus)),
			zap.Int64("total_cents", e.TotalCents),
		}
	case *trade.InvoiceCreatedEvent:
		return []zap.Field{
			zap.String("order_id", e.OrderID.String()),
			zap.String("code", e.Code),
			zap.Int64("total_cents", e.TotalCents),
		}
	case *trade.InvoiceArchivedEvent:
		return []zap.Field{
			zap.String("order_id", e.OrderID.String()),
			zap.String("code", e.Code),
			zap.String("payment_status", string(e.PaymentStatus)),
			zap.Bool("cascade", e.Cascade),
		}
	case *trade.ShipmentStatusChangedEvent:
		return []zap.Field{
			zap.String("order_id", e.OrderID.String()),
			zap.String("shipment_no", e.ShipmentNo),
			zap.String("from_status", string(e.FromStatus)),
			zap.String("to_status", string(e.ToStatus)),
		}
	case *trade.PaymentRecordedEvent:
		return []zap.Field{
			zap.String("order_id", e.OrderID.String()),
			zap.String("invoice_id", e.InvoiceID.String()),
			zap.String("payment_no", e.PaymentNo),
			zap.Int64("amount_cents", e.AmountCents),
			zap.String("method", string(e.Method)),
		}
	case *trade.PaymentDeletedEvent:
		return []zap.Field{
			zap.String("order_id", e.OrderID.String()),
			zap.String("invoice_id", e.InvoiceID.String()),
			zap.String("payment_no", e.PaymentNo),
			zap.Int64("amount_cents", e.AmountCents),
		}
	}
	return nil
}

// Ensure SaleOrderAuditHandler implements EventHandler
var _ shared.EventHandler = (*SaleOrderAuditHandler)(nil)
