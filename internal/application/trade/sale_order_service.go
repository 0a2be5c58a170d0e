package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleOrderService handles sale order header, items and status changes
type SaleOrderService struct {
	serviceCore
}

// NewSaleOrderService creates a new SaleOrderService
func NewSaleOrderService(deps Dependencies) *SaleOrderService {
	return &SaleOrderService{serviceCore: newServiceCore(deps)}
}

// Create creates a draft order numbered by the sequencer
func (s *SaleOrderService) Create(ctx context.Context, storeID, userID uuid.UUID, req CreateSaleOrderRequest) (*SaleOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale_order", "create")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var order *trade.SaleOrder
	err := s.withUniqueRetry(ctx, "create sale order", func() error {
		orderNo, err := s.sequencer.NextNumber(ctx, trade.OrderNumberScope(storeID))
		if err != nil {
			return err
		}
		order, err = trade.NewSaleOrder(storeID, userID, orderNo, req.customer(), req.PaymentTerms)
		if err != nil {
			return err
		}
		if _, err := order.SyncItems(itemDrafts(req.Items), trade.ItemConstraints{}); err != nil {
			return err
		}
		if err := order.UpdateHeader(req.customer(), req.PaymentTerms, req.Notes, req.ShippingCents, req.DiscountCents); err != nil {
			return err
		}
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			return repos.SaleOrders().Create(ctx, order)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, drainEvents(order))
	s.createDocument(ctx, order)
	telemetry.SetAttributes(span, "order_id", order.ID.String(), "order_no", order.OrderNo)
	telemetry.SetOK(span)

	response := ToSaleOrderResponse(order)
	return &response, nil
}

// Get returns the order with its invoices, shipments, payments and abilities
func (s *SaleOrderService) Get(ctx context.Context, storeID, orderID uuid.UUID) (*SaleOrderDetailResponse, error) {
	snapshot, err := loadSnapshot(ctx, s.reads, storeID, orderID)
	if err != nil {
		return nil, err
	}

	detail := SaleOrderDetailResponse{
		SaleOrderResponse: ToSaleOrderResponse(snapshot.Order),
		Invoices:          make([]InvoiceResponse, 0, len(snapshot.Invoices)),
		Shipments:         make([]ShipmentResponse, 0, len(snapshot.Shipments)),
		Payments:          make([]PaymentResponse, 0, len(snapshot.Payments)),
		Abilities:         trade.ComputeAbilities(*snapshot).Map(),
	}
	for _, inv := range snapshot.Invoices {
		detail.Invoices = append(detail.Invoices, ToInvoiceResponse(inv, snapshot.Payments))
	}
	for _, shipment := range snapshot.Shipments {
		detail.Shipments = append(detail.Shipments, ToShipmentResponse(shipment))
	}
	for _, payment := range snapshot.Payments {
		detail.Payments = append(detail.Payments, ToPaymentResponse(payment))
	}
	return &detail, nil
}

// Update replaces the header of a Draft, Open or PartiallyShipped order
func (s *SaleOrderService) Update(ctx context.Context, storeID, orderID uuid.UUID, req UpdateSaleOrderRequest) (*SaleOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale_order", "update")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return nil, err
	}

	var order *trade.SaleOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{})
		if err != nil {
			return err
		}
		order = tree.Order
		if err := order.UpdateHeader(req.customer(), req.PaymentTerms, req.Notes, req.ShippingCents, req.DiscountCents); err != nil {
			return err
		}
		if err := s.postAdjustment(ctx, repos, order); err != nil {
			return err
		}
		return repos.SaleOrders().Update(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)

	response := ToSaleOrderResponse(order)
	return &response, nil
}

// Preview prices lines and charges the way Create would, saving nothing
func (s *SaleOrderService) Preview(ctx context.Context, req PreviewSaleOrderRequest) (*PreviewResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	lineTotals := make([]int64, len(req.Items))
	for idx, item := range req.Items {
		if err := trade.ValidateLine(item.Quantity, item.UnitPriceCents, item.DiscountPercent); err != nil {
			return nil, withItemField(err, idx)
		}
		lineTotals[idx] = trade.LineTotal(item.Quantity, item.UnitPriceCents, item.DiscountPercent)
	}
	totals, err := trade.ComputeTotals(trade.SumLineTotals(lineTotals...), req.ShippingCents, req.DiscountCents)
	if err != nil {
		return nil, err
	}
	return &PreviewResponse{TotalsResponse: toTotalsResponse(totals), LineTotalsCents: lineTotals}, nil
}

// SyncItems replaces the item set. Shipped items must come back unchanged
// and no item may drop below its invoiced quantity.
func (s *SaleOrderService) SyncItems(ctx context.Context, storeID, orderID uuid.UUID, req SyncItemsRequest) (*SaleOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale_order", "sync_items")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return nil, err
	}

	var order *trade.SaleOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Shipments: true, AllItems: true})
		if err != nil {
			return err
		}
		order = tree.Order
		removed, err := order.SyncItems(itemDrafts(req.Items), trade.ItemConstraints{
			Locked:   trade.ShippedItemSet(tree.Shipments, uuid.Nil),
			Invoiced: trade.InvoicedQuantities(tree.Invoices),
		})
		if err != nil {
			return err
		}
		if err := s.postAdjustment(ctx, repos, order); err != nil {
			return err
		}
		return repos.SaleOrders().SyncItems(ctx, order, removed)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)

	response := ToSaleOrderResponse(order)
	return &response, nil
}

// TransitionStatus applies a direct status change: Open, Cancelled or Completed
func (s *SaleOrderService) TransitionStatus(ctx context.Context, storeID, orderID uuid.UUID, req TransitionSaleOrderRequest) (*SaleOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale_order", "transition_status",
		telemetry.WithAttribute("target_status", string(req.Status)))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	loc, err := s.location(req.Timezone)
	if err != nil {
		return nil, err
	}
	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return nil, err
	}

	var order *trade.SaleOrder
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		switch req.Status {
		case trade.OrderStatusOpen:
			order, err = s.open(ctx, repos, orderID)
		case trade.OrderStatusCancelled:
			order, events, err = s.cancel(ctx, repos, orderID)
		case trade.OrderStatusCompleted:
			order, err = s.complete(ctx, repos, orderID, loc)
		default:
			tree, lockErr := lockOrderTree(ctx, repos, orderID, lockScope{})
			if lockErr != nil {
				return lockErr
			}
			return trade.ValidateOrderTransition(tree.Order.Status, req.Status)
		}
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithTraceContext(ctx, s.logger).Info("sale order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	s.publish(ctx, drainEvents(order, events...))
	telemetry.SetOK(span)

	response := ToSaleOrderResponse(order)
	return &response, nil
}

func (s *SaleOrderService) open(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) (*trade.SaleOrder, error) {
	tree, err := lockOrderTree(ctx, repos, orderID, lockScope{})
	if err != nil {
		return nil, err
	}
	order := tree.Order
	if err := order.Open(); err != nil {
		return nil, err
	}
	if _, err := s.posting.PostOrderOpened(ctx, repos.Journal(), order); err != nil {
		return nil, err
	}
	return order, repos.SaleOrders().Update(ctx, order)
}

// cancel archives every Active invoice, freezing its payment status, and
// every Open shipment, all under the same locks as the order.
func (s *SaleOrderService) cancel(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID) (*trade.SaleOrder, []shared.DomainEvent, error) {
	tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Shipments: true, Payments: true})
	if err != nil {
		return nil, nil, err
	}
	order := tree.Order
	if err := order.Cancel(trade.HasShippedShipment(tree.Shipments)); err != nil {
		return nil, nil, err
	}

	now := s.now()
	var events []shared.DomainEvent
	for _, inv := range tree.Invoices {
		if !inv.ArchiveForCancellation(tree.netPaid(inv), now) {
			continue
		}
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return nil, nil, err
		}
		events = append(events, trade.NewInvoiceArchivedEvent(inv, true))
	}
	for _, shipment := range tree.Shipments {
		if shipment.Status != trade.ShipmentStatusOpen {
			continue
		}
		if err := shipment.Archive(now); err != nil {
			return nil, nil, err
		}
		if err := repos.Shipments().Update(ctx, shipment); err != nil {
			return nil, nil, err
		}
		events = append(events, trade.NewShipmentStatusChangedEvent(shipment, trade.ShipmentStatusOpen, trade.ShipmentStatusArchived))
	}
	return order, events, repos.SaleOrders().Update(ctx, order)
}

// complete posts the completion entry, then audits the ledger and stores
// the verdict with the order in the same transaction
func (s *SaleOrderService) complete(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID, loc *time.Location) (*trade.SaleOrder, error) {
	tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Payments: true})
	if err != nil {
		return nil, err
	}
	order := tree.Order
	if err := order.Complete(trade.BuildInvoicePayments(tree.Invoices, tree.Payments), s.now(), loc); err != nil {
		return nil, err
	}
	if _, err := s.posting.PostOrderCompleted(ctx, repos.Journal(), order, tree.Payments); err != nil {
		return nil, err
	}
	if _, err := s.audit.Verify(ctx, repos.Journal(), order, tree.Payments); err != nil {
		return nil, err
	}
	return order, repos.SaleOrders().Update(ctx, order)
}

// postAdjustment books a total changed by an edit to an opened order.
// It runs before the save so the key carries the version that was edited.
func (s *SaleOrderService) postAdjustment(ctx context.Context, repos TransactionalRepositories, order *trade.SaleOrder) error {
	if order.Status == trade.OrderStatusDraft {
		return nil
	}
	_, err := s.posting.PostOrderAdjusted(ctx, repos.Journal(), order, order.Version)
	return err
}

func (s *SaleOrderService) location(name string) (*time.Location, error) {
	if name == "" {
		return s.settings.DefaultLocation, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, shared.NewValidationError("timezone", "INVALID_TIMEZONE", "Unknown timezone "+name)
	}
	return loc, nil
}

func withItemField(err error, idx int) error {
	de, ok := err.(*shared.DomainError)
	if !ok {
		return err
	}
	copied := *de
	copied.Field = fmt.Sprintf("items[%d].%s", idx, de.Field)
	return &copied
}
