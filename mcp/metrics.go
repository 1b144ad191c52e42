package mcp

import (
	"context"
	"errors"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pkt.systems/pslog"
	"pkt.systems/seammcp/internal/correlation"
)

const (
	metricToolCalls        = "seammcp_tool_calls_total"
	metricToolCallDuration = "seammcp_tool_call_duration_seconds"

	outcomeSuccess = "success"
)

var toolCallDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

type toolMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tracer   trace.Tracer
}

// newToolMetrics registers the tool collectors on reg. A nil reg keeps the
// collectors private. Collectors already present on reg are reused, so
// several servers can share one registry.
func newToolMetrics(reg prometheus.Registerer) *toolMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricToolCalls,
		Help: "MCP tool calls by tool and outcome (success or error code)",
	}, []string{"tool", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricToolCallDuration,
		Help:    "MCP tool call duration in seconds, including Seam API round trips",
		Buckets: toolCallDurationBuckets,
	}, []string{"tool"})
	return &toolMetrics{
		calls:    registerOrReuse(reg, calls),
		duration: registerOrReuse(reg, duration),
		tracer:   otel.Tracer("pkt.systems/seammcp/mcp"),
	}
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		// A conflicting collector leaves c usable but unexported.
	}
	return c
}

// initialize pre-creates the success series so every tool shows up on
// /metrics before its first call.
func (m *toolMetrics) initialize(tools []string) {
	for _, tool := range tools {
		m.calls.WithLabelValues(tool, outcomeSuccess).Add(0)
	}
}

func (m *toolMetrics) observe(tool, outcome string, elapsed time.Duration) {
	m.calls.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// instrumentTool wraps a tool handler with a correlation id, a span, call
// logging and metrics. It expects errors already converted by withToolErrors.
func instrumentTool[In, Out any](s *server, tool string, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		begin := time.Now()
		ctx, cid := correlation.Ensure(ctx)
		ctx, span := s.metrics.tracer.Start(ctx, "seammcp.tool."+tool, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(
			attribute.String("mcp.tool", tool),
			attribute.String("seammcp.correlation_id", cid),
		)

		logger := s.toolLog.With("tool", tool, "cid", cid)
		ctx = pslog.ContextWithLogger(ctx, logger)
		logger.Debug("mcp.tool.call.start")

		res, out, err := h(ctx, req, input)
		elapsed := time.Since(begin)
		outcome := outcomeSuccess
		if err != nil {
			outcome = errorCodeRemote
			var te toolError
			if errors.As(err, &te) {
				outcome = te.Envelope.ErrorCode
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			logger.Warn("mcp.tool.call.error", "outcome", outcome, "elapsed", elapsed, "error", err)
		} else {
			span.SetStatus(codes.Ok, "")
			logger.Info("mcp.tool.call.success", "elapsed", elapsed)
		}
		s.metrics.observe(tool, outcome, elapsed)
		return res, out, err
	}
}
