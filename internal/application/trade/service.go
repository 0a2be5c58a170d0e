package trade

import (
	"context"
	"time"

	appbk "github.com/erp/wholesale/internal/application/bookkeeping"
	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings tunes the sale order services
type Settings struct {
	// UniqueViolationAttempts bounds whole-transaction retries of numbered creations
	UniqueViolationAttempts int
	// DefaultLocation dates completions when the request names no timezone
	DefaultLocation *time.Location
}

// DefaultSettings returns three attempts and UTC
func DefaultSettings() Settings {
	return Settings{UniqueViolationAttempts: 3, DefaultLocation: time.UTC}
}

// Dependencies wires the collaborators the sale order services share.
// Reads serves unlocked lookups made outside any transaction.
type Dependencies struct {
	Scope     TransactionScope
	Reads     TransactionalRepositories
	Sequencer Sequencer
	Posting   *appbk.PostingService
	Audit     *appbk.AuditService
	Logger    *zap.Logger
	Settings  Settings
}

type serviceCore struct {
	scope     TransactionScope
	reads     TransactionalRepositories
	sequencer Sequencer
	posting   *appbk.PostingService
	audit     *appbk.AuditService
	logger    *zap.Logger
	settings  Settings

	eventPublisher shared.EventPublisher
	documentHook   DocumentHook
	metrics        *telemetry.WholesaleMetrics
	now            func() time.Time
}

func newServiceCore(deps Dependencies) serviceCore {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	settings := deps.Settings
	if settings.UniqueViolationAttempts <= 0 {
		settings.UniqueViolationAttempts = DefaultSettings().UniqueViolationAttempts
	}
	if settings.DefaultLocation == nil {
		settings.DefaultLocation = time.UTC
	}
	return serviceCore{
		scope:        deps.Scope,
		reads:        deps.Reads,
		sequencer:    deps.Sequencer,
		posting:      deps.Posting,
		audit:        deps.Audit,
		logger:       log,
		settings:     settings,
		documentHook: NoopDocumentHook{},
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher used after commit
func (s *serviceCore) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetDocumentHook sets the external document hook
func (s *serviceCore) SetDocumentHook(hook DocumentHook) {
	if hook == nil {
		hook = NoopDocumentHook{}
	}
	s.documentHook = hook
}

// SetMetrics sets the metrics collector
func (s *serviceCore) SetMetrics(m *telemetry.WholesaleMetrics) {
	s.metrics = m
}

// findOrder is the unlocked existence check made before a transaction opens.
// An order of another store is reported as not found.
func (s *serviceCore) findOrder(ctx context.Context, storeID, orderID uuid.UUID) (*trade.SaleOrder, error) {
	return s.reads.SaleOrders().FindByIDForStore(ctx, storeID, orderID)
}

// publish records transition metrics and publishes events once the
// transaction has committed. Publish failures are logged, not returned.
func (s *serviceCore) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	for _, event := range events {
		s.recordTransition(ctx, event)
	}
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.WithTraceContext(ctx, s.logger).Warn("failed to publish sale order events",
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
}

func (s *serviceCore) recordTransition(ctx context.Context, event shared.DomainEvent) {
	if s.metrics == nil {
		return
	}
	switch e := event.(type) {
	case *trade.SaleOrderStatusChangedEvent:
		s.metrics.RecordTransition(ctx, e.StoreID(), "sale_order", string(e.FromStatus), string(e.ToStatus))
	case *trade.ShipmentStatusChangedEvent:
		s.metrics.RecordTransition(ctx, e.StoreID(), "shipment", string(e.FromStatus), string(e.ToStatus))
	}
}

// createDocument calls the document hook; failures are logged only
func (s *serviceCore) createDocument(ctx context.Context, entity any) {
	if err := s.documentHook.CreateWholesaleDocument(ctx, entity); err != nil {
		logger.WithTraceContext(ctx, s.logger).Warn("wholesale document hook failed", zap.Error(err))
	}
}

// drainEvents takes the events an order raised during a unit of work
func drainEvents(order *trade.SaleOrder, extra ...shared.DomainEvent) []shared.DomainEvent {
	raised := order.GetDomainEvents()
	events := make([]shared.DomainEvent, 0, len(raised)+len(extra))
	events = append(events, raised...)
	events = append(events, extra...)
	order.ClearDomainEvents()
	return events
}
