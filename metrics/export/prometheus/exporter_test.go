package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goConsole "github.com/MrEthical07/goConsole"
)

type fakeSource struct {
	snapshot goConsole.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() goConsole.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters:   map[goConsole.MetricID]uint64{},
			Histograms: map[goConsole.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goConsole.MetricsSnapshot{
			Counters: map[goConsole.MetricID]uint64{
				goConsole.MetricLoginSuccess:        7,
				goConsole.MetricNotificationExpired: 3,
			},
			Histograms: map[goConsole.MetricID][]uint64{
				goConsole.MetricLoginLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
			AuditDropped: 2,
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"goconsole_login_success_total 7",
		"goconsole_notification_expired_total 3",
		"goconsole_login_failure_total 0",
		"# TYPE goconsole_login_latency_seconds histogram",
		`goconsole_login_latency_seconds_bucket{le="0.05"} 1`,
		`goconsole_login_latency_seconds_bucket{le="+Inf"} 36`,
		"goconsole_login_latency_seconds_count 36",
		"goconsole_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "goconsole_server_status") {
		t.Fatal("plain sources must not render store state")
	}
}

func TestHandlerServesStoreState(t *testing.T) {
	store, err := goConsole.New().WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer store.Close()
	if err := store.SetServerStatus(goConsole.StatusDegraded); err != nil {
		t.Fatalf("SetServerStatus: %v", err)
	}
	if err := store.SetToken(context.Background(), "tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, err := store.ShowNotification(goConsole.NotificationPayload{Message: "saved"}); err != nil {
		t.Fatalf("ShowNotification: %v", err)
	}

	rec := httptest.NewRecorder()
	NewPrometheusExporter(store).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`goconsole_server_status{status="degraded"} 1`,
		`goconsole_server_status{status="online"} 0`,
		"goconsole_session_authenticated 1",
		"goconsole_notifications_active 1",
		"goconsole_notification_shown_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, body)
		}
	}
}
