package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormConfig controls database instrumentation
type GormConfig struct {
	Tracing            bool          // register otelgorm spans
	LogFullSQL         bool          // keep bound variables in span statements
	SlowQueryThreshold time.Duration // default 200ms
	DBSystem           string        // default postgresql
}

// GormInstrumentation is a gorm plugin recording query spans, a latency
// histogram per operation and table, slow query warnings and connection
// pool gauges.
type GormInstrumentation struct {
	cfg      GormConfig
	meter    metric.Meter
	logger   *zap.Logger
	duration *Histogram
	pool     metric.Registration
}

// NewGormInstrumentation creates the plugin. A nil meter disables metrics.
func NewGormInstrumentation(cfg GormConfig, meter metric.Meter, logger *zap.Logger) *GormInstrumentation {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormInstrumentation{cfg: cfg, meter: meter, logger: logger}
}

// Name implements gorm.Plugin
func (g *GormInstrumentation) Name() string {
	return "wholesale:instrumentation"
}

type queryStartKey struct{}

// Initialize implements gorm.Plugin
func (g *GormInstrumentation) Initialize(db *gorm.DB) error {
	if g.cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(g.cfg.DBSystem)}
		if !g.cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	if g.meter != nil {
		var err error
		g.duration, err = NewHistogram(g.meter, "db.client.query.duration",
			"Duration of database queries", "s", DBDurationBuckets)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := g.observePool(sqlDB); err != nil {
				return err
			}
		}
	}

	cb := db.Callback()
	hooks := []struct {
		name   string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("wholesale:before_"+h.name, g.before); err != nil {
			return err
		}
		if err := h.after("wholesale:after_"+h.name, g.after); err != nil {
			return err
		}
	}

	g.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", g.cfg.Tracing),
		zap.Bool("metrics", g.meter != nil),
		zap.Duration("slow_query_threshold", g.cfg.SlowQueryThreshold),
	)
	return nil
}

func (g *GormInstrumentation) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (g *GormInstrumentation) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	operation := operationOf(db.Statement.SQL.String())
	table := db.Statement.Table

	outcome := "ok"
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		outcome = "error"
	}
	if g.duration != nil {
		g.duration.RecordDuration(ctx, elapsed,
			AttrDBOperation.String(operation),
			AttrDBTable.String(table),
			AttrDBOutcome.String(outcome),
		)
	}

	if elapsed < g.cfg.SlowQueryThreshold {
		return
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", g.cfg.SlowQueryThreshold.Milliseconds()),
		))
	}
	g.logger.Warn("Slow query",
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
	)
}

func (g *GormInstrumentation) observePool(sqlDB *sql.DB) error {
	conns, err := g.meter.Int64ObservableGauge("db.client.connections.usage",
		metric.WithDescription("Database connections by state"), metric.WithUnit("{connections}"))
	if err != nil {
		return err
	}
	waits, err := g.meter.Int64ObservableCounter("db.client.connections.wait_count",
		metric.WithDescription("Connections waited for"), metric.WithUnit("{waits}"))
	if err != nil {
		return err
	}
	g.pool, err = g.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBPoolState.String("used")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBPoolState.String("idle")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, waits)
	return err
}

// Close stops pool observation
func (g *GormInstrumentation) Close() error {
	if g.pool == nil {
		return nil
	}
	return g.pool.Unregister()
}

func operationOf(statement string) string {
	statement = strings.TrimSpace(statement)
	verb, _, _ := strings.Cut(statement, " ")
	switch verb = strings.ToUpper(verb); verb {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return verb
	case "WITH":
		return "SELECT"
	}
	return "OTHER"
}

var _ gorm.Plugin = (*GormInstrumentation)(nil)
