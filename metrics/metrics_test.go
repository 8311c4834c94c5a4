package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.Positions.Set(14)
	m.Unresolved.WithLabelValues("quote").Set(1)
	m.PipelineErrors.WithLabelValues("correlation").Inc()
	m.Observe("dashboard", time.Now())

	if got := testutil.ToFloat64(m.Positions); got != 14 {
		t.Errorf("Positions = %v want 14", got)
	}
	if got := testutil.ToFloat64(m.Unresolved.WithLabelValues("quote")); got != 1 {
		t.Errorf("Unresolved{quote} = %v want 1", got)
	}
	if got := testutil.CollectAndCount(m.PipelineDuration); got != 1 {
		t.Errorf("PipelineDuration series = %d want 1", got)
	}
	if n, err := testutil.GatherAndCount(m.Registry, "folio_pipeline_errors_total"); err != nil || n != 1 {
		t.Errorf("GatherAndCount() = %d, %v want 1", n, err)
	}
}

func TestPush(t *testing.T) {
	var body, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.Positions.Set(3)
	if err := m.Push(context.Background(), srv.URL, ""); err != nil {
		t.Fatalf("Push() unexpected error: %v", err)
	}
	if path != "/metrics/job/folio" {
		t.Errorf("Push() path = %q want /metrics/job/folio", path)
	}
	if !strings.Contains(body, "folio_positions") {
		t.Errorf("Push() body does not contain folio_positions")
	}
}
