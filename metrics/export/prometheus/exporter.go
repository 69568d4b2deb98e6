package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goConsole.MetricsSnapshot
}

// stateSource is implemented by *goConsole.Store. Sources without it get
// counters only.
type stateSource interface {
	ServerStatus() goConsole.ServerStatus
	IsAuthenticated() bool
	Notifications() []goConsole.Notification
}

var serverStatuses = []goConsole.ServerStatus{
	goConsole.StatusOnline,
	goConsole.StatusDegraded,
	goConsole.StatusOffline,
	goConsole.StatusMaintenance,
}

// PrometheusExporter renders a store's metrics as Prometheus text.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from store.
func NewPrometheusExporter(store *goConsole.Store) *PrometheusExporter {
	return &PrometheusExporter{source: store}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" while metrics are disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := snapshot.AuditDropped
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeCounter(&b, "goconsole_audit_dropped_total", "Audit events that never reached the sink.", dropped)

	if state, ok := p.source.(stateSource); ok {
		writeState(&b, state)
	}

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	writeHeader(b, name, help, "counter")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeState(b *strings.Builder, state stateSource) {
	const statusName = "goconsole_server_status"
	writeHeader(b, statusName, "Last reported management API status (1 for the current one).", "gauge")
	current := state.ServerStatus()
	for _, st := range serverStatuses {
		v := uint64(0)
		if st == current {
			v = 1
		}
		b.WriteString(statusName)
		b.WriteString("{status=\"")
		b.WriteString(st.String())
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(v, 10))
		b.WriteByte('\n')
	}

	authenticated := uint64(0)
	if state.IsAuthenticated() {
		authenticated = 1
	}
	writeGauge(b, "goconsole_session_authenticated", "Whether a session token is present.", authenticated)
	writeGauge(b, "goconsole_notifications_active", "Notifications currently shown.", uint64(len(state.Notifications())))
}

func writeGauge(b *strings.Builder, name, help string, value uint64) {
	writeHeader(b, name, help, "gauge")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Snapshots carry no sum.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
