package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_WithoutTracer(t *testing.T) {
	SetTracer(nil)

	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	assert.NotNil(t, span)
	assert.Equal(t, "", GetTraceID(ctx))
	assert.Empty(t, CarrierHeaders(ctx))
}

func TestInit_LogExporter(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "fern-test", Exporter: "log"})
	require.NoError(t, err)
	defer func() {
		SetTracer(nil)
		_ = shutdown(context.Background())
	}()

	ctx, span := StartSpan(context.Background(), "test")
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	assert.Contains(t, CarrierHeaders(ctx)["traceparent"], GetTraceID(ctx))
	span.End()
}
