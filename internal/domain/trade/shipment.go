package trade

import (
	"fmt"
	"time"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/google/uuid"
)

// ShipmentStatus represents the status of a shipment
type ShipmentStatus string

const (
	ShipmentStatusOpen     ShipmentStatus = "OPEN"
	ShipmentStatusShipped  ShipmentStatus = "SHIPPED"
	ShipmentStatusArchived ShipmentStatus = "ARCHIVED"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusOpen: {ShipmentStatusShipped, ShipmentStatusArchived},
}

// IsValid checks if the status is a valid ShipmentStatus
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case ShipmentStatusOpen, ShipmentStatusShipped, ShipmentStatusArchived:
		return true
	}
	return false
}

// String returns the string representation of ShipmentStatus
func (s ShipmentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks the shipment transition table
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	for _, allowed := range shipmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ShipmentItem attaches one order item to a shipment
type ShipmentItem struct {
	ID          uuid.UUID
	ShipmentID  uuid.UUID
	OrderItemID uuid.UUID
}

// Shipment is a physical dispatch of some order items
type Shipment struct {
	shared.BaseEntity
	OrderID        uuid.UUID
	StoreID        uuid.UUID
	ShipmentNo     string
	Status         ShipmentStatus
	Carrier        string
	TrackingNumber string
	Items          []ShipmentItem
	ShippedAt      *time.Time
	ArchivedAt     *time.Time
}

// ShipmentContext carries the order-level facts shipment rules depend on
type ShipmentContext struct {
	// ShippedItems holds order items already on a Shipped shipment
	// other than the one being validated.
	ShippedItems     map[uuid.UUID]bool
	HasActiveInvoice bool
}

// NewShipmentContext derives the shipment facts from the order's invoices
// and shipments, ignoring the shipment with id exclude.
func NewShipmentContext(invoices []*Invoice, shipments []*Shipment, exclude uuid.UUID) ShipmentContext {
	sc := ShipmentContext{ShippedItems: ShippedItemSet(shipments, exclude)}
	for _, inv := range invoices {
		if inv.IsActive() {
			sc.HasActiveInvoice = true
			break
		}
	}
	return sc
}

// ValidateShipmentItems checks that item ids are non-empty, unique,
// belong to the order, and are not attached to a Shipped shipment.
func ValidateShipmentItems(order *SaleOrder, itemIDs []uuid.UUID, shipped map[uuid.UUID]bool) error {
	if len(itemIDs) == 0 {
		return shared.NewValidationError("items", "NO_ITEMS", "Shipment needs at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(itemIDs))
	for idx, id := range itemIDs {
		item, ok := order.FindItem(id)
		if !ok {
			return shared.NewValidationError(fmt.Sprintf("items[%d]", idx), "ITEM_NOT_FOUND", "Item does not belong to this order")
		}
		if seen[id] {
			return shared.NewValidationError(fmt.Sprintf("items[%d]", idx), "DUPLICATE_ITEM", "Item listed more than once")
		}
		seen[id] = true
		if shipped[id] {
			return shared.NewValidationError(fmt.Sprintf("items[%d]", idx), "ITEM_ALREADY_SHIPPED",
				fmt.Sprintf("Line %d is already on a shipped shipment", item.LineNo))
		}
	}
	return nil
}

// NewShipment creates an open shipment for the order
func NewShipment(order *SaleOrder, shipmentNo string, itemIDs []uuid.UUID, carrier, tracking string, sc ShipmentContext) (*Shipment, error) {
	if !order.CanCreateShipment() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot create a shipment for order in %s status", order.Status))
	}
	if !sc.HasActiveInvoice {
		return nil, shared.NewValidationError("invoices", "NO_ACTIVE_INVOICE", "A shipment requires an active invoice")
	}
	if shipmentNo == "" {
		return nil, shared.NewValidationError("shipment_no", "INVALID_SHIPMENT_NUMBER", "Shipment number cannot be empty")
	}
	if err := ValidateShipmentItems(order, itemIDs, sc.ShippedItems); err != nil {
		return nil, err
	}

	s := &Shipment{
		BaseEntity:     shared.NewBaseEntity(),
		OrderID:        order.ID,
		StoreID:        order.StoreID,
		ShipmentNo:     shipmentNo,
		Status:         ShipmentStatusOpen,
		Carrier:        carrier,
		TrackingNumber: tracking,
	}
	s.setItems(itemIDs)
	return s, nil
}

func (s *Shipment) setItems(itemIDs []uuid.UUID) {
	s.Items = make([]ShipmentItem, len(itemIDs))
	for idx, id := range itemIDs {
		s.Items[idx] = ShipmentItem{ID: uuid.New(), ShipmentID: s.ID, OrderItemID: id}
	}
}

// OrderItemIDs returns the order items attached to the shipment
func (s *Shipment) OrderItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Items))
	for idx, item := range s.Items {
		ids[idx] = item.OrderItemID
	}
	return ids
}

// Update changes carrier, tracking and the item set of an open shipment
func (s *Shipment) Update(order *SaleOrder, carrier, tracking string, itemIDs []uuid.UUID, shipped map[uuid.UUID]bool) error {
	if s.Status != ShipmentStatusOpen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot edit a shipment in %s status", s.Status))
	}
	if itemIDs != nil {
		if err := ValidateShipmentItems(order, itemIDs, shipped); err != nil {
			return err
		}
		s.setItems(itemIDs)
	}
	s.Carrier = carrier
	s.TrackingNumber = tracking
	s.Touch()
	return nil
}

// Ship marks the shipment Shipped, re-validating its items
func (s *Shipment) Ship(order *SaleOrder, sc ShipmentContext, now time.Time) error {
	if !s.Status.CanTransitionTo(ShipmentStatusShipped) {
		return shared.NewInvalidTransitionError("shipment", s.Status.String(), ShipmentStatusShipped.String())
	}
	if len(s.Items) == 0 {
		return shared.NewValidationError("items", "EMPTY_SHIPMENT", "Cannot ship an empty shipment")
	}
	if !sc.HasActiveInvoice {
		return shared.NewValidationError("invoices", "NO_ACTIVE_INVOICE", "A shipment requires an active invoice")
	}
	if err := ValidateShipmentItems(order, s.OrderItemIDs(), sc.ShippedItems); err != nil {
		return err
	}
	s.Status = ShipmentStatusShipped
	s.ShippedAt = &now
	s.UpdatedAt = now
	return nil
}

// Archive archives an open shipment
func (s *Shipment) Archive(now time.Time) error {
	if !s.Status.CanTransitionTo(ShipmentStatusArchived) {
		return shared.NewInvalidTransitionError("shipment", s.Status.String(), ShipmentStatusArchived.String())
	}
	s.Status = ShipmentStatusArchived
	s.ArchivedAt = &now
	s.UpdatedAt = now
	return nil
}

// SubtotalCents sums the order-item totals attached to the shipment
func (s *Shipment) SubtotalCents(order *SaleOrder) int64 {
	var total int64
	for _, si := range s.Items {
		if item, ok := order.FindItem(si.OrderItemID); ok {
			total += item.TotalCents
		}
	}
	return total
}

// ShippedItemSet collects order items attached to Shipped shipments,
// skipping the shipment with id exclude.
func ShippedItemSet(shipments []*Shipment, exclude uuid.UUID) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, s := range shipments {
		if s.ID == exclude || s.Status != ShipmentStatusShipped {
			continue
		}
		for _, item := range s.Items {
			out[item.OrderItemID] = true
		}
	}
	return out
}

// HasShippedShipment reports whether any shipment is Shipped
func HasShippedShipment(shipments []*Shipment) bool {
	for _, s := range shipments {
		if s.Status == ShipmentStatusShipped {
			return true
		}
	}
	return false
}

// ShippedSubtotalCents sums subtotals of all Shipped shipments
func ShippedSubtotalCents(order *SaleOrder, shipments []*Shipment) int64 {
	var total int64
	for _, s := range shipments {
		if s.Status == ShipmentStatusShipped {
			total += s.SubtotalCents(order)
		}
	}
	return total
}
