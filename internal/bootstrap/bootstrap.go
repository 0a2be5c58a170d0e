// Package bootstrap assembles the wholesale services from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	appbk "github.com/erp/wholesale/internal/application/bookkeeping"
	apptrade "github.com/erp/wholesale/internal/application/trade"
	"github.com/erp/wholesale/internal/domain/bookkeeping"
	"github.com/erp/wholesale/internal/domain/trade"
	"github.com/erp/wholesale/internal/infrastructure/cache"
	"github.com/erp/wholesale/internal/infrastructure/config"
	"github.com/erp/wholesale/internal/infrastructure/event"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/erp/wholesale/internal/infrastructure/persistence"
	"github.com/erp/wholesale/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options overrides collaborators NewServices would otherwise build from config
type Options struct {
	Chart        bookkeeping.ChartOfAccounts
	Sequencer    apptrade.Sequencer
	Redis        redis.Cmdable
	Metrics      *telemetry.WholesaleMetrics
	DocumentHook apptrade.DocumentHook
}

// Services holds the wired application services
type Services struct {
	SaleOrders *apptrade.SaleOrderService
	Invoices   *apptrade.InvoiceService
	Shipments  *apptrade.ShipmentService
	Payments   *apptrade.PaymentService
	Abilities  *apptrade.AbilityService
	Posting    *appbk.PostingService
	Audit      *appbk.AuditService
	Bus        *event.InMemoryEventBus
}

// NewServices wires every service over db
func NewServices(cfg *config.Config, db *gorm.DB, log *zap.Logger, opts Options) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}

	format := NumberFormat(cfg.Numbering)
	sequencer := opts.Sequencer
	if sequencer == nil {
		switch cfg.Numbering.Backend {
		case "redis":
			if opts.Redis == nil {
				return nil, errors.New("numbering backend redis needs a redis client")
			}
			sequencer = cache.NewRedisSequencer(opts.Redis, format)
		default:
			sequencer = persistence.NewGormSequencer(db, format)
		}
	}

	chart := opts.Chart
	if chart == nil {
		if opts.Redis != nil {
			chart = cache.NewRedisChartCache(opts.Redis, persistence.NewGormAccountMappingRepository(db), cfg.Redis.ChartTTL, log)
		} else {
			chart = persistence.NewGormChartOfAccounts(db)
		}
	}

	reads := persistence.NewGormRepositories(db)
	posting := appbk.NewPostingService(chart, cfg.Bookkeeping.VersionTag, log.Named("posting"))
	audit := appbk.NewAuditService(persistence.NewGormLedgerTransactionScope(db), reads, log.Named("audit"))

	deps := apptrade.Dependencies{
		Scope:     persistence.NewGormTradeTransactionScope(db),
		Reads:     reads,
		Sequencer: sequencer,
		Posting:   posting,
		Audit:     audit,
		Logger:    log.Named("trade"),
		Settings: apptrade.Settings{
			UniqueViolationAttempts: cfg.Retry.UniqueViolationAttempts,
			DefaultLocation:         cfg.Bookkeeping.Location(),
		},
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewSaleOrderAuditHandler(log))

	hook := opts.DocumentHook
	if hook == nil {
		hook = event.NewLoggingDocumentHook(log)
	}

	s := &Services{
		SaleOrders: apptrade.NewSaleOrderService(deps),
		Invoices:   apptrade.NewInvoiceService(deps),
		Shipments:  apptrade.NewShipmentService(deps),
		Payments:   apptrade.NewPaymentService(deps),
		Abilities:  apptrade.NewAbilityService(reads),
		Posting:    posting,
		Audit:      audit,
		Bus:        bus,
	}

	s.SaleOrders.SetEventPublisher(bus)
	s.Invoices.SetEventPublisher(bus)
	s.Shipments.SetEventPublisher(bus)
	s.Payments.SetEventPublisher(bus)

	s.SaleOrders.SetDocumentHook(hook)
	s.Shipments.SetDocumentHook(hook)

	if opts.Metrics != nil {
		s.SaleOrders.SetMetrics(opts.Metrics)
		s.Invoices.SetMetrics(opts.Metrics)
		s.Shipments.SetMetrics(opts.Metrics)
		s.Payments.SetMetrics(opts.Metrics)
		posting.SetMetrics(opts.Metrics)
		audit.SetMetrics(opts.Metrics)
	}

	return s, nil
}

// NumberFormat builds the document number format, falling back to the
// default prefix of any kind left blank
func NumberFormat(cfg config.NumberingConfig) trade.NumberFormat {
	format := trade.DefaultNumberFormat()
	set := func(kind trade.DocumentKind, prefix string) {
		if prefix != "" {
			format.Prefixes[kind] = prefix
		}
	}
	set(trade.DocumentSaleOrder, cfg.OrderPrefix)
	set(trade.DocumentShipment, cfg.ShipmentPrefix)
	set(trade.DocumentPayment, cfg.PaymentPrefix)
	if cfg.Width > 0 {
		format.Width = cfg.Width
	}
	return format
}

// Runtime owns the process-wide resources behind Services
type Runtime struct {
	Services  *Services
	Database  *persistence.Database
	Redis     *redis.Client
	Telemetry *telemetry.Providers

	instrumentation *telemetry.GormInstrumentation
	logger          *zap.Logger
}

// Open connects the database, redis and telemetry exporters described by
// cfg and wires the services over them
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	providers, err := telemetry.Setup(ctx, telemetryConfig(cfg), log.Named("telemetry"))
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	rt := &Runtime{Telemetry: providers, logger: log}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	rt.Database, err = persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))

	meter := providers.Meter(telemetry.TracerName)
	rt.instrumentation = telemetry.NewGormInstrumentation(telemetry.GormConfig{
		Tracing:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, meter, log.Named("db"))
	if err := rt.Database.DB.Use(rt.instrumentation); err != nil {
		return nil, errors.Join(fmt.Errorf("instrument database: %w", err), rt.Close(ctx))
	}

	opts := Options{}
	if cfg.Redis.Enabled {
		rt.Redis, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(err, rt.Close(ctx))
		}
		opts.Redis = rt.Redis
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	opts.Metrics, err = telemetry.NewWholesaleMetrics(telemetry.WholesaleMetricsConfig{Meter: meter, Logger: log})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create wholesale metrics: %w", err), rt.Close(ctx))
	}

	rt.Services, err = NewServices(cfg, rt.Database.DB, log, opts)
	if err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}
	if err := rt.Services.Bus.Start(ctx); err != nil {
		return nil, errors.Join(err, rt.Close(ctx))
	}
	return rt, nil
}

// Close drains the event bus and releases every resource in reverse order
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Services != nil {
		errs = append(errs, r.Services.Bus.Stop(ctx))
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.instrumentation != nil {
		errs = append(errs, r.instrumentation.Close())
	}
	if r.Database != nil {
		errs = append(errs, r.Database.Close())
	}
	if r.Telemetry != nil {
		errs = append(errs, r.Telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}
	return telemetry.Config{
		ServiceName:       serviceName,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracingEnabled:    cfg.Telemetry.Enabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		ExportInterval:    cfg.Telemetry.ExportInterval,
	}
}
