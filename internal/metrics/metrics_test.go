package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.LedgerDelta("atomic", nil)
	m.Reconciled("drift")
	m.EventPublished(errors.New("boom"))
	m.CacheLookup("incomes", true)
	m.SecurityEvent("rate_limited")
	if m.Registry() != nil {
		t.Fatal("nil metrics should have no registry")
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.LedgerDelta("atomic", nil)
	m.LedgerDelta("atomic", nil)
	m.LedgerDelta("naive", errors.New("write failed"))
	m.Reconciled("drift")
	m.SecurityEvent("suspicious")

	if got := testutil.ToFloat64(m.ledgerDeltas.WithLabelValues("atomic", "ok")); got != 2 {
		t.Fatalf("expected 2 atomic deltas, got %v", got)
	}
	if got := testutil.ToFloat64(m.ledgerDeltas.WithLabelValues("naive", "error")); got != 1 {
		t.Fatalf("expected 1 failed naive delta, got %v", got)
	}
	if got := testutil.ToFloat64(m.reconciliations.WithLabelValues("drift")); got != 1 {
		t.Fatalf("expected 1 drift, got %v", got)
	}
	if got := testutil.ToFloat64(m.securityEvents.WithLabelValues("suspicious")); got != 1 {
		t.Fatalf("expected 1 suspicious request, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/balance", 200, 5*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `budgetbuddy_http_requests_total{method="GET",route="/api/balance",status="200"} 1`) {
		t.Fatalf("metric not exposed:\n%s", body)
	}
}
