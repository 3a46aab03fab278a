package observability

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

type spanKey struct{}

// SpanName returns "component.operation" of the innermost span in ctx, or "".
func SpanName(ctx context.Context) string {
	name, _ := ctx.Value(spanKey{}).(string)
	return name
}

// StartSpan logs the start and end of an operation at debug level, or at error
// level when the returned func gets a non-nil error. Nested spans log their
// parent.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger := load().log
	if logger == nil {
		return ctx, func(error) {}
	}

	name := component + "." + operation
	attrs := []slog.Attr{slog.String("span", name)}
	if parent := SpanName(ctx); parent != "" {
		attrs = append(attrs, slog.String("parent", parent))
	}
	ctx = context.WithValue(ctx, spanKey{}, name)

	started := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "span start", attrs...)
	return ctx, func(err error) {
		level := slog.LevelDebug
		end := append(attrs[:len(attrs):len(attrs)], slog.Duration("duration", time.Since(started)))
		if err != nil {
			level = slog.LevelError
			end = append(end, slog.Any("error", err))
		}
		logger.LogAttrs(ctx, level, "span end", end...)
	}
}

// RecordMetric writes an ad-hoc datapoint to the debug log. Labels are sorted so
// identical points produce identical lines.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger := load().log
	if logger == nil {
		return
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+2)
	attrs = append(attrs, slog.String("metric", name), slog.Float64("value", value))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, labels[k]))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "metric", attrs...)
}

// ObserveAnalysis feeds one completed analysis into the Prometheus collectors and
// the debug log. outcome is "fake", "real", "fraudulent", "legitimate" or "error".
func ObserveAnalysis(ctx context.Context, kind, outcome string, riskScore int, elapsed time.Duration) {
	RecordMetric(ctx, "analysis", float64(riskScore), map[string]string{"kind": kind, "outcome": outcome})

	m := CurrentMetrics()
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(kind, outcome).Inc()
	m.AnalysisDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if outcome != OutcomeError {
		m.RiskScore.WithLabelValues(kind).Observe(float64(riskScore))
	}
}

// ObserveRequest counts one served HTTP request.
func ObserveRequest(method, path string, status int) {
	if m := CurrentMetrics(); m != nil {
		m.HTTPRequests.WithLabelValues(method, path, statusLabel(status)).Inc()
	}
}
