package trade

import (
	"context"
	"strings"

	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records payments and refunds against invoices
type PaymentService struct {
	serviceCore
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(deps Dependencies) *PaymentService {
	return &PaymentService{serviceCore: newServiceCore(deps)}
}

// ValidateAmount checks a candidate amount against unlocked balances.
// The verdict is advisory; Create checks again under lock.
func (s *PaymentService) ValidateAmount(ctx context.Context, storeID, orderID uuid.UUID, req ValidatePaymentAmountRequest) (*PaymentVerdictResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	_, verdict, err := s.precheck(ctx, storeID, orderID, req.InvoiceID, req.AmountCents)
	if err != nil {
		return nil, err
	}
	response := toPaymentVerdictResponse(verdict)
	return &response, nil
}

// Create records a payment, or a refund for a negative amount. The amount
// is validated before locking and again, authoritatively, after.
func (s *PaymentService) Create(ctx context.Context, storeID, orderID uuid.UUID, req CreatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create",
		telemetry.WithAttribute("amount_cents", req.AmountCents))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	order, verdict, err := s.precheck(ctx, storeID, orderID, req.InvoiceID, req.AmountCents)
	if err != nil {
		return nil, err
	}
	if !verdict.Accepted {
		err := s.rejection(ctx, storeID, verdict)
		telemetry.RecordError(span, err)
		return nil, err
	}

	var payment *trade.Payment
	err = s.withUniqueRetry(ctx, "create payment", func() error {
		paymentNo, err := s.sequencer.NextNumber(ctx, trade.ChildNumberScope(trade.DocumentPayment, order))
		if err != nil {
			return err
		}
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			payment, err = s.record(ctx, repos, orderID, paymentNo, req)
			return err
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, []shared.DomainEvent{trade.NewPaymentRecordedEvent(payment)})
	telemetry.SetOK(span)
	response := ToPaymentResponse(payment)
	return &response, nil
}

func (s *PaymentService) record(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID, paymentNo string, req CreatePaymentRequest) (*trade.Payment, error) {
	tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Payments: true})
	if err != nil {
		return nil, err
	}
	inv, ok := tree.invoice(req.InvoiceID)
	if !ok {
		return nil, shared.NewNotFoundError("invoice")
	}

	verdict := trade.ValidatePaymentAmount(paymentCheck(inv, tree.Invoices, tree.Payments, req.AmountCents))
	if !verdict.Accepted {
		return nil, s.rejection(ctx, tree.Order.StoreID, verdict)
	}

	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment, err := trade.NewPayment(tree.Order, inv, paymentNo, req.AmountCents, req.Method, req.IsDeposit, paidAt, req.Note)
	if err != nil {
		return nil, err
	}
	if err := repos.Payments().Create(ctx, payment); err != nil {
		return nil, err
	}
	tree.Payments = append(tree.Payments, payment)

	if inv.RefreshPaymentStatus(tree.netPaid(inv)) {
		if err := repos.Invoices().Update(ctx, inv); err != nil {
			return nil, err
		}
	}
	if _, err := s.posting.PostPayment(ctx, repos.Journal(), tree.Order, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Delete soft-deletes a payment and reverses its journal entries in the
// same transaction
func (s *PaymentService) Delete(ctx context.Context, storeID, orderID, paymentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete")
	defer span.End()

	if _, err := s.findOrder(ctx, storeID, orderID); err != nil {
		return err
	}
	if _, err := s.reads.Payments().FindByIDForOrder(ctx, orderID, paymentID); err != nil {
		return err
	}

	var deleted *trade.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tree, err := lockOrderTree(ctx, repos, orderID, lockScope{Invoices: true, Payments: true})
		if err != nil {
			return err
		}
		payment, ok := tree.payment(paymentID)
		if !ok {
			return shared.NewNotFoundError("payment")
		}
		if err := payment.SoftDelete(s.now()); err != nil {
			return err
		}
		if err := repos.Payments().Update(ctx, payment); err != nil {
			return err
		}
		if _, err := s.posting.ReversePayment(ctx, repos.Journal(), payment); err != nil {
			return err
		}
		if inv, ok := tree.invoice(payment.InvoiceID); ok && inv.RefreshPaymentStatus(tree.netPaid(inv)) {
			if err := repos.Invoices().Update(ctx, inv); err != nil {
				return err
			}
		}
		deleted = payment
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.publish(ctx, []shared.DomainEvent{trade.NewPaymentDeletedEvent(deleted)})
	telemetry.SetOK(span)
	return nil
}

// precheck is the fast, unlocked amount check
func (s *PaymentService) precheck(ctx context.Context, storeID, orderID, invoiceID uuid.UUID, amountCents int64) (*trade.SaleOrder, trade.PaymentVerdict, error) {
	order, err := s.findOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, trade.PaymentVerdict{}, err
	}
	inv, err := s.reads.Invoices().FindByIDForOrder(ctx, orderID, invoiceID)
	if err != nil {
		return nil, trade.PaymentVerdict{}, err
	}
	invoices, err := s.reads.Invoices().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, trade.PaymentVerdict{}, err
	}
	payments, err := s.reads.Payments().FindByOrder(ctx, orderID)
	if err != nil {
		return nil, trade.PaymentVerdict{}, err
	}
	return order, trade.ValidatePaymentAmount(paymentCheck(inv, invoices, payments, amountCents)), nil
}

func (s *PaymentService) rejection(ctx context.Context, storeID uuid.UUID, verdict trade.PaymentVerdict) error {
	if s.metrics != nil {
		s.metrics.RecordPaymentRejection(ctx, storeID, string(verdict.Reason))
	}
	logger.WithTraceContext(ctx, s.logger).Info("payment rejected",
		zap.String("reason", string(verdict.Reason)),
		zap.Strings("errors", verdict.Errors),
	)
	return shared.NewValidationError("amount_cents", strings.ToUpper(string(verdict.Reason)), strings.Join(verdict.Errors, "; "))
}

func paymentCheck(inv *trade.Invoice, invoices []*trade.Invoice, payments []*trade.Payment, amountCents int64) trade.PaymentCheck {
	return trade.PaymentCheck{
		Invoice:       trade.NewInvoicePayments(inv, payments),
		OrderInvoices: trade.BuildInvoicePayments(invoices, payments),
		AmountCents:   amountCents,
	}
}
