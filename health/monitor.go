// Package health polls the management API and reports its status to the
// session store.
package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/clock"
)

// DefaultInterval is how often Run probes when Config.Interval is zero.
const DefaultInterval = 30 * time.Second

// Probe measures the API's current status.
type Probe interface {
	Probe(ctx context.Context) goConsole.ServerStatus
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) goConsole.ServerStatus

func (f ProbeFunc) Probe(ctx context.Context) goConsole.ServerStatus { return f(ctx) }

// Sink receives status transitions. *goConsole.Store implements it.
type Sink interface {
	SetServerStatus(goConsole.ServerStatus) error
}

// Config tunes a Monitor.
type Config struct {
	Interval time.Duration
	// Timeout bounds a single probe. Zero means Interval.
	Timeout time.Duration
	Clock   clock.Clock
	Logger  *slog.Logger
}

// Monitor probes periodically and forwards status changes to a Sink.
type Monitor struct {
	probe  Probe
	sink   Sink
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	last     goConsole.ServerStatus
	reported bool
}

// NewMonitor returns a Monitor; nothing runs until Check or Run.
func NewMonitor(probe Probe, sink Sink, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{probe: probe, sink: sink, cfg: cfg, logger: logger}
}

// Check probes once and reports the result if it differs from the last
// reported status. The first check always reports.
func (m *Monitor) Check(ctx context.Context) goConsole.ServerStatus {
	pctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	status := m.probe.Probe(pctx)
	cancel()

	m.mu.Lock()
	changed := !m.reported || status != m.last
	m.last = status
	m.reported = true
	m.mu.Unlock()

	if changed {
		if err := m.sink.SetServerStatus(status); err != nil {
			m.logger.Warn("status report rejected", "status", status.String(), "error", err)
		}
	}
	return status
}

// Last returns the most recent probe result.
func (m *Monitor) Last() (goConsole.ServerStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.reported
}

// Run checks immediately and then once per interval until ctx is done.
// It returns ctx's error.
func (m *Monitor) Run(ctx context.Context) error {
	if m.probe == nil || m.sink == nil {
		return errors.New("health: monitor needs a probe and a sink")
	}
	ticker := m.cfg.Clock.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			m.Check(ctx)
		}
	}
}
