package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "wholesale"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Tracer("test"))
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_Enabled(t *testing.T) {
	// The OTLP exporters connect lazily, so no collector is needed here
	p, err := Setup(context.Background(), Config{
		ServiceName:       "wholesale-test",
		CollectorEndpoint: "localhost:4317",
		Insecure:          true,
		TracingEnabled:    true,
		SamplingRatio:     0.5,
		MetricsEnabled:    true,
	}, nil)
	require.NoError(t, err)

	assert.True(t, p.TracingEnabled())
	assert.True(t, p.MetricsEnabled())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 1, want: sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{ratio: 2, want: sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{ratio: 0, want: sdktrace.NeverSample().Description()},
		{ratio: -1, want: sdktrace.NeverSample().Description()},
		{ratio: 0.25, want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sampler(tt.ratio).Description(), "ratio %v", tt.ratio)
	}
}
