package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goGate "github.com/MrEthical07/goGate"
)

type metricsSource interface {
	MetricsSnapshot() goGate.MetricsSnapshot
}

type counterDef struct {
	id   goGate.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{id: goGate.MetricRequestAllowed, name: "gogate_request_allowed_total", help: "Requests that passed their full gate chain."},
	{id: goGate.MetricRateLimitHit, name: "gogate_rate_limit_hit_total", help: "Requests rejected by a rate limit window."},
	{id: goGate.MetricRateLimitCleared, name: "gogate_rate_limit_cleared_total", help: "Administrative rate limit clears."},
	{id: goGate.MetricAuthDenied, name: "gogate_auth_denied_total", help: "Requests denied for missing authentication."},
	{id: goGate.MetricBearerAccepted, name: "gogate_bearer_accepted_total", help: "Accepted bearer tokens."},
	{id: goGate.MetricBearerRejected, name: "gogate_bearer_rejected_total", help: "Rejected bearer tokens."},
	{id: goGate.MetricGuestRedirected, name: "gogate_guest_redirected_total", help: "Authenticated users bounced off guest-only pages."},
	{id: goGate.MetricRoleDenied, name: "gogate_role_denied_total", help: "Requests denied for insufficient role."},
	{id: goGate.MetricSessionDestroyed, name: "gogate_session_destroyed_total", help: "Sessions destroyed for stale or inactive accounts."},
	{id: goGate.MetricCsrfRejected, name: "gogate_csrf_rejected_total", help: "Requests rejected by CSRF verification."},
	{id: goGate.MetricFailureTranslated, name: "gogate_failure_translated_total", help: "Failures converted to terminal responses."},
	{id: goGate.MetricPanicRecovered, name: "gogate_panic_recovered_total", help: "Panics recovered inside gate pipelines."},
	{id: goGate.MetricAuditDropped, name: "gogate_audit_dropped_total", help: "Audit events dropped under dispatcher backpressure."},
}

// Exporter renders goGate metrics in Prometheus text exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter reading from the given [goGate.Engine].
func NewExporter(engine *goGate.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from a custom snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler that serves the current metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes the current metrics in Prometheus text exposition format.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.name, def.help, snapshot.Counters[def.id])
	}

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
