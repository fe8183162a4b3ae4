package dispatch

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/metrics"
)

// instrument wraps a tool's invocation in a span and counts the outcome.
func (d *Dispatcher) instrument(rt Route, def *capability.ToolDefinition) capability.ToolFunc {
	attrs := []attribute.KeyValue{
		attribute.String("mcp.tool.name", def.Name),
		attribute.String("mcp.route", rt.Name),
		attribute.String("mcp.definition.overlay", def.Provenance.Overlay),
		attribute.String("mcp.definition.path", def.Provenance.Path),
	}
	if rt.Handler != "" {
		attrs = append(attrs, attribute.String("mcp.handler", rt.Handler))
	}

	return func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
		ctx, span := d.tracer.Start(ctx, "mcp.tool/"+def.Name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		res, err := def.Handler(ctx, args)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.ToolInvocations.WithLabelValues(def.Name, "error").Inc()
		case res != nil && res.IsError:
			span.SetStatus(codes.Error, "tool returned an error result")
			metrics.ToolInvocations.WithLabelValues(def.Name, "error").Inc()
		default:
			span.SetStatus(codes.Ok, "")
			metrics.ToolInvocations.WithLabelValues(def.Name, "ok").Inc()
		}
		return res, err
	}
}
