package trade

import (
	"context"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShipmentService handles shipments and the order's shipment status
type ShipmentService struct {
	serviceCore
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(deps Dependencies) *ShipmentService {
	return &ShipmentService{serviceCore: newServiceCore(deps)}
}

// Create creates an open shipment of the listed order items
func (s *ShipmentService) Create(ctx context.Context, storeID, orderID uuid.UUID, req CreateShipmentRequest) (*ShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "create")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	found, err := s.findOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	var shipment *trade.Shipment
	err = s.withUniqueRetry(ctx, "create shipment", func() error {
		shipmentNo, err := s.sequencer.NextNumber(ctx, trade.ChildNumberScope(trade.DocumentShipment, found))
		if err != nil {
			return err
		}
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Shipments: true, Items: req.ItemIDs})
			if err != nil {
				return err
			}
			shipment, err = trade.NewShipment(tree.Order, shipmentNo, req.ItemIDs, req.Carrier, req.TrackingNumber,
				trade.NewShipmentContext(tree.Invoices, tree.Shipments, uuid.Nil))
			if err != nil {
				return err
			}
			return repos.Shipments().Create(ctx, shipment)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.createDocument(ctx, shipment)
	telemetry.SetOK(span)
	response := ToShipmentResponse(shipment)
	return &response, nil
}

// Update changes carrier, tracking and items of an open shipment
func (s *ShipmentService) Update(ctx context.Context, storeID, orderID, shipmentID uuid.UUID, req UpdateShipmentRequest) (*ShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "update")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.findShipment(ctx, storeID, orderID, shipmentID); err != nil {
		return nil, err
	}

	var response ShipmentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Shipments: true, Items: req.ItemIDs})
		if err != nil {
			return err
		}
		shipment, ok := tree.shipment(shipmentID)
		if !ok {
			return shared.NewNotFoundError("shipment")
		}
		shipped := trade.ShippedItemSet(tree.Shipments, shipment.ID)
		if err := shipment.Update(tree.Order, req.Carrier, req.TrackingNumber, req.ItemIDs, shipped); err != nil {
			return err
		}
		if err := repos.Shipments().Update(ctx, shipment); err != nil {
			return err
		}
		response = ToShipmentResponse(shipment)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return &response, nil
}

// Transition ships or archives an open shipment. Shipping posts revenue
// recognition and recomputes the order's shipment status.
func (s *ShipmentService) Transition(ctx context.Context, storeID, orderID, shipmentID uuid.UUID, req TransitionShipmentRequest) (*ShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipment", "transition",
		telemetry.WithAttribute("target_status", string(req.Status)))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.findShipment(ctx, storeID, orderID, shipmentID); err != nil {
		return nil, err
	}

	var response ShipmentResponse
	var events []shared.DomainEvent
	var order *trade.SaleOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Shipments: true, AllItems: true})
		if err != nil {
			return err
		}
		order = tree.Order
		shipment, ok := tree.shipment(shipmentID)
		if !ok {
			return shared.NewNotFoundError("shipment")
		}
		from := shipment.Status

		switch req.Status {
		case trade.ShipmentStatusShipped:
			err = s.ship(ctx, repos, tree, shipment)
		case trade.ShipmentStatusArchived:
			if err = shipment.Archive(s.now()); err == nil {
				err = repos.Shipments().Update(ctx, shipment)
			}
		default:
			err = shared.NewInvalidTransitionError("shipment", from.String(), req.Status.String())
		}
		if err != nil {
			return err
		}
		events = append(events, trade.NewShipmentStatusChangedEvent(shipment, from, shipment.Status))
		response = ToShipmentResponse(shipment)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.WithTraceContext(ctx, s.logger).Info("shipment status changed",
		zap.String("order_id", orderID.String()),
		zap.String("shipment_id", shipmentID.String()),
		zap.String("status", string(req.Status)),
	)
	s.publish(ctx, drainEvents(order, events...))
	telemetry.SetOK(span)
	return &response, nil
}

func (s *ShipmentService) ship(ctx context.Context, repos TransactionalRepositories, tree *orderTree, shipment *trade.Shipment) error {
	order := tree.Order
	if err := shipment.Ship(order, trade.NewShipmentContext(tree.Invoices, tree.Shipments, shipment.ID), s.now()); err != nil {
		return err
	}
	if err := repos.Shipments().Update(ctx, shipment); err != nil {
		return err
	}
	if _, err := s.posting.PostShipmentShipped(ctx, repos.Journal(), order, shipment, tree.Shipments); err != nil {
		return err
	}
	if order.ApplyShipmentProgress(len(trade.ShippedItemSet(tree.Shipments, uuid.Nil))) {
		return repos.SaleOrders().Update(ctx, order)
	}
	return nil
}

func (s *ShipmentService) findShipment(ctx context.Context, storeID, orderID, shipmentID uuid.UUID) error {
	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return err
	}
	_, err := s.reads.Shipments().FindByIDForOrder(ctx, orderID, shipmentID)
	return err
}
