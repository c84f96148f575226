package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	goGate "github.com/MrEthical07/goGate"
)

type fakeSource struct {
	snapshot goGate.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() goGate.MetricsSnapshot { return f.snapshot }

func TestRenderCounters(t *testing.T) {
	source := &fakeSource{
		snapshot: goGate.MetricsSnapshot{Counters: map[goGate.MetricID]uint64{
			goGate.MetricRateLimitHit: 7,
			goGate.MetricAuthDenied:   3,
			goGate.MetricAuditDropped: 2,
		}},
	}

	out := NewExporterFromSource(source).Render()

	for _, want := range []string{
		"# TYPE gogate_rate_limit_hit_total counter",
		"gogate_rate_limit_hit_total 7",
		"gogate_auth_denied_total 3",
		"gogate_request_allowed_total 0",
		"gogate_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q\n%s", want, out)
		}
	}
}

func TestHandlerContentType(t *testing.T) {
	source := &fakeSource{snapshot: goGate.MetricsSnapshot{Counters: map[goGate.MetricID]uint64{}}}
	handler := NewExporterFromSource(source).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "gogate_request_allowed_total") {
		t.Fatal("handler body missing counters")
	}
}

func TestRenderNilExporter(t *testing.T) {
	var e *Exporter
	if e.Render() != "" {
		t.Fatal("nil exporter must render nothing")
	}
}
