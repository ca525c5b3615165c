package futurecash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

func TestInitTracerDisabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown, err := InitTracer(context.Background(), "futurecash-test", zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestSampler(t *testing.T) {
	tests := []struct {
		arg      string
		expected string
	}{
		{"", sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1)).Description()},
		{"0.25", sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
		{"7", sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1)).Description()},
		{"abc", sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1)).Description()},
	}
	for _, ts := range tests {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", ts.arg)
		require.Equal(t, ts.expected, sampler().Description(), ts.arg)
	}
}

func TestServiceResource(t *testing.T) {
	t.Setenv("FUTURECASH_ENV", "")
	res, err := serviceResource(context.Background(), "futurecash-api")
	require.NoError(t, err)

	values := map[string]string{}
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.AsString()
	}
	require.Equal(t, "futurecash-api", values[string(semconv.ServiceNameKey)])
	require.Equal(t, "development", values[string(semconv.DeploymentEnvironmentKey)])
}
