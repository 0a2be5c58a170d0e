package trade

import (
	"context"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// InvoiceService handles invoice generation, edits and archival
type InvoiceService struct {
	serviceCore
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(deps Dependencies) *InvoiceService {
	return &InvoiceService{serviceCore: newServiceCore(deps)}
}

// Generate invoices every order item at its ordered quantity, carrying the
// order's own shipping and discount
func (s *InvoiceService) Generate(ctx context.Context, storeID, orderID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "generate")
	defer span.End()

	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return nil, err
	}
	resp, err := s.create(ctx, orderID, lockScope{Invoices: true, AllItems: true}, func(order *trade.SaleOrder) ([]trade.InvoiceLineRequest, int64, int64) {
		return trade.FullInvoiceRequest(order), order.ShippingCents, order.DiscountCents
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return resp, nil
}

// Create invoices the requested quantities. Shipping and discount default to zero.
func (s *InvoiceService) Create(ctx context.Context, storeID, orderID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return nil, err
	}
	var shipping, discount int64
	if req.ShippingCents != nil {
		shipping = *req.ShippingCents
	}
	if req.DiscountCents != nil {
		discount = *req.DiscountCents
	}
	resp, err := s.create(ctx, orderID, lockScope{Invoices: true, Items: req.itemIDs()}, func(*trade.SaleOrder) ([]trade.InvoiceLineRequest, int64, int64) {
		return req.lineRequests(), shipping, discount
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return resp, nil
}

type invoiceRequestFunc func(order *trade.SaleOrder) (lines []trade.InvoiceLineRequest, shippingCents, discountCents int64)

// create allocates and numbers a new invoice. A sequence collision retries
// the whole transaction.
func (s *InvoiceService) create(ctx context.Context, orderID uuid.UUID, scope lockScope, request invoiceRequestFunc) (*InvoiceResponse, error) {
	var invoice *trade.Invoice
	err := s.withUniqueRetry(ctx, "create invoice", func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			tree, err := lockOrderTree(ctx, repos, orderID, scope)
			if err != nil {
				return err
			}
			order := tree.Order
			if err := trade.CheckInvoiceable(order); err != nil {
				return err
			}

			lines, shipping, discount := request(order)
			items, err := trade.AllocateInvoiceLines(order, trade.InvoicedQuantities(tree.Invoices), lines)
			if err != nil {
				return err
			}
			maxSeq, err := repos.Invoices().MaxSequence(ctx, orderID)
			if err != nil {
				return err
			}
			invoice, err = trade.NewInvoice(order, maxSeq+1, items, shipping, discount)
			if err != nil {
				return err
			}
			return repos.Invoices().Create(ctx, invoice)
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, []shared.DomainEvent{trade.NewInvoiceCreatedEvent(invoice)})
	response := ToInvoiceResponse(invoice, nil)
	return &response, nil
}

// Update changes an Active invoice's shipping and discount; the total is
// recomputed from its own lines
func (s *InvoiceService) Update(ctx context.Context, storeID, orderID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.findInvoice(ctx, storeID, orderID, invoiceID); err != nil {
		return nil, err
	}

	var response InvoiceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Payments: true})
		if err != nil {
			return err
		}
		inv, ok := tree.invoice(invoiceID)
		if !ok {
			return shared.NewNotFoundError("invoice")
		}
		if err := inv.UpdateCharges(req.ShippingCents, req.DiscountCents, tree.netPaid(inv)); err != nil {
			return err
		}
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		response = ToInvoiceResponse(inv, tree.Payments)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	return &response, nil
}

// Archive archives an Active invoice unless it is the order's last one
func (s *InvoiceService) Archive(ctx context.Context, storeID, orderID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "archive")
	defer span.End()

	if err := s.findInvoice(ctx, storeID, orderID, invoiceID); err != nil {
		return nil, err
	}

	var response InvoiceResponse
	var archived *trade.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Payments: true})
		if err != nil {
			return err
		}
		inv, ok := tree.invoice(invoiceID)
		if !ok {
			return shared.NewNotFoundError("invoice")
		}
		active := trade.ActiveInvoices(trade.BuildInvoicePayments(tree.Invoices, tree.Payments))
		if err := inv.Archive(len(active), tree.netPaid(inv), s.now()); err != nil {
			return err
		}
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		archived = inv
		response = ToInvoiceResponse(inv, tree.Payments)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, []shared.DomainEvent{trade.NewInvoiceArchivedEvent(archived, false)})
	telemetry.SetOK(span)
	return &response, nil
}

func (s *InvoiceService) findInvoice(ctx context.Context, storeID, orderID, invoiceID uuid.UUID) error {
	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return err
	}
	_, err := s.reads.Invoices().FindByIDForOrder(ctx, orderID, invoiceID)
	return err
}
