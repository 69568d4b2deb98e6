package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/avast/retry-go/v4"
)

// HTTPProbe maps a GET of url to a status: 2xx is online, 503 is
// maintenance, any other response is degraded, and no response at all is
// offline. A nil client means http.DefaultClient.
func HTTPProbe(client *http.Client, url string) Probe {
	if client == nil {
		client = http.DefaultClient
	}
	return ProbeFunc(func(ctx context.Context) goConsole.ServerStatus {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return goConsole.StatusOffline
		}
		resp, err := client.Do(req)
		if err != nil {
			return goConsole.StatusOffline
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return goConsole.StatusOnline
		case resp.StatusCode == http.StatusServiceUnavailable:
			return goConsole.StatusMaintenance
		default:
			return goConsole.StatusDegraded
		}
	})
}

var errOffline = errors.New("health: probe reported offline")

// Retry re-runs p while it reports offline, up to attempts times with a
// fixed delay between runs, so one dropped connection does not flip the
// console offline. Other statuses are returned immediately.
func Retry(p Probe, attempts uint, delay time.Duration) Probe {
	if attempts < 1 {
		attempts = 1
	}
	return ProbeFunc(func(ctx context.Context) goConsole.ServerStatus {
		status := goConsole.StatusOffline
		_ = retry.Do(
			func() error {
				status = p.Probe(ctx)
				if status == goConsole.StatusOffline {
					return errOffline
				}
				return nil
			},
			retry.Attempts(attempts),
			retry.Delay(delay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
		)
		return status
	})
}
