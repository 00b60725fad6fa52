package exporters

import (
	"context"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes finished spans to the service log at debug level. It is the exporter used
// when no OTLP collector is configured.
type LogExporter struct {
	logger ectologger.Logger
}

func NewLogExporter(logger ectologger.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	if e.logger == nil {
		return nil
	}
	for _, span := range spans {
		e.logger.WithFields(spanFields(span)).Debug("span finished")
	}
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}

func spanFields(span trace.ReadOnlySpan) map[string]any {
	fields := map[string]any{
		"span":        span.Name(),
		"trace_id":    span.SpanContext().TraceID().String(),
		"span_id":     span.SpanContext().SpanID().String(),
		"duration_ms": span.EndTime().Sub(span.StartTime()).Milliseconds(),
		"status":      span.Status().Code.String(),
	}
	if parent := span.Parent(); parent.IsValid() {
		fields["parent_span_id"] = parent.SpanID().String()
	}
	return fields
}
