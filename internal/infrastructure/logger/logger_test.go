package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	t.Run("defaults to info on stdout", func(t *testing.T) {
		log, err := New(Config{})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("parses level case-insensitively", func(t *testing.T) {
		log, err := New(Config{Level: "WARN", Format: "console", Output: "stderr"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := New(Config{Level: "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid log level "verbose"`)
	})

	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wholesale.log")
		log, err := New(Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)

		log.Info("sale order opened", zap.String("order_no", "SO-000001"))
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"sale order opened"`)
		assert.Contains(t, string(data), `"order_no":"SO-000001"`)
	})

	t.Run("fails when the file cannot be opened", func(t *testing.T) {
		_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
		assert.Error(t, err)
	})
}

func TestWithTraceContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	WithTraceContext(context.Background(), base).Info("no span")

	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	ctx, span := provider.Tracer("test").Start(context.Background(), "sale_order.create")
	WithTraceContext(ctx, base).Info("with span")
	span.End()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[1].ContextMap()["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[1].ContextMap()["span_id"])
}

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT * FROM sale_orders", 3 }
	ctx := context.Background()

	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		message string
	}{
		{name: "error", level: gormlogger.Error, err: errors.New("deadlock detected"), message: "SQL error"},
		{name: "not found is quiet", level: gormlogger.Warn, err: gormlogger.ErrRecordNotFound},
		{name: "slow", level: gormlogger.Warn, elapsed: time.Second, message: "Slow SQL"},
		{name: "fast at warn", level: gormlogger.Warn},
		{name: "query at info", level: gormlogger.Info, message: "SQL query"},
		{name: "silent", level: gormlogger.Silent, err: errors.New("ignored")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, 200*time.Millisecond)

			gl.Trace(ctx, time.Now().Add(-tt.elapsed), query, tt.err)

			if tt.message == "" {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.message, entry.Message)
			assert.Equal(t, "gorm", entry.LoggerName)
			assert.Equal(t, "SELECT * FROM sale_orders", entry.ContextMap()["sql"])
			assert.Equal(t, int64(3), entry.ContextMap()["rows"])
		})
	}
}

func TestGormLogger_LogMode(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Silent, 0)

	loud := gl.LogMode(gormlogger.Info)
	loud.Info(context.Background(), "migrated %d tables", 4)
	gl.Info(context.Background(), "dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "migrated 4 tables", logs.All()[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
