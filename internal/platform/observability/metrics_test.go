package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetupDisabledLeavesMetricsNil(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background())

	if CurrentMetrics() != nil {
		t.Fatal("expected no metrics when disabled")
	}
	// must not panic without collectors
	ObserveAnalysis(context.Background(), "media", "fake", 80, time.Millisecond)
	ObserveRequest(http.MethodGet, "/health", 200)
}

func TestObserveAnalysisCounts(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: true, MetricsPath: "/metrics"}, nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background())

	ObserveAnalysis(context.Background(), "job", "fraudulent", 85, 10*time.Millisecond)
	ObserveAnalysis(context.Background(), "job", "fraudulent", 90, 10*time.Millisecond)
	ObserveAnalysis(context.Background(), "media", OutcomeError, 0, time.Millisecond)
	ObserveRequest(http.MethodPost, "/api/analyze-job", 200)

	m := CurrentMetrics()
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("job", "fraudulent")); got != 2 {
		t.Fatalf("expected 2 fraudulent job analyses, got %v", got)
	}
	if got := testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("media", OutcomeError)); got != 1 {
		t.Fatalf("expected 1 media error, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/analyze-job", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trustlens_analyses_total") {
		t.Fatalf("exposition missing counter: %s", rec.Body.String())
	}
}

func TestNestedSpansLogParent(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	shutdown, err := Setup(context.Background(), Config{}, logger)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer shutdown(context.Background())

	ctx, endOuter := StartSpan(context.Background(), "http.server", "/api/analyze-job")
	inner, endInner := StartSpan(ctx, "jobs", "analyze")
	if SpanName(inner) != "jobs.analyze" {
		t.Fatalf("unexpected span name %q", SpanName(inner))
	}
	endInner(errors.New("boom"))
	endOuter(nil)

	out := buf.String()
	if !strings.Contains(out, "parent=http.server./api/analyze-job") {
		t.Fatalf("inner span did not log its parent:\n%s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "error=boom") {
		t.Fatalf("failed span not logged at error level:\n%s", out)
	}
}
