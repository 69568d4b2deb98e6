// Package prometheus renders goConsole metrics in the Prometheus text
// exposition format.
//
// Counters are named goconsole_*_total; the single histogram is
// goconsole_login_latency_seconds. The exporter reads snapshots on demand
// and never registers anything globally; mount [PrometheusExporter.Handler]
// where it is needed.
package prometheus
