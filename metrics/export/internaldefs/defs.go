package internaldefs

import (
	goConsole "github.com/MrEthical07/goConsole"
)

// CounterDef names one goConsole counter.
type CounterDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// HistogramDef names one goConsole histogram.
type HistogramDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: goConsole.MetricLoginSuccess, Name: "goconsole_login_success_total", Help: "Logins that committed a session."},
	{ID: goConsole.MetricLoginFailure, Name: "goconsole_login_failure_total", Help: "Logins that ended with the session cleared."},
	{ID: goConsole.MetricLoginRateLimited, Name: "goconsole_login_rate_limited_total", Help: "Login attempts denied by the local throttle."},
	{ID: goConsole.MetricLogout, Name: "goconsole_logout_total", Help: "Logout operations."},
	{ID: goConsole.MetricSessionRestored, Name: "goconsole_session_restored_total", Help: "Sessions restored from storage at startup."},
	{ID: goConsole.MetricNotificationShown, Name: "goconsole_notification_shown_total", Help: "Notifications shown."},
	{ID: goConsole.MetricNotificationExpired, Name: "goconsole_notification_expired_total", Help: "Notifications removed by their expiry timer."},
	{ID: goConsole.MetricPersistenceFailure, Name: "goconsole_persistence_failure_total", Help: "Session storage operations that failed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goConsole.MetricLoginLatency, Name: "goconsole_login_latency_seconds", Help: "Login round-trip latency."},
}

// HistogramBounds are the bucket upper bounds in seconds, matching the
// store's millisecond buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix are HistogramBounds usable inside instrument names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
