package goConsole

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goConsole/clock"
	"github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/internal/authapi"
	"github.com/MrEthical07/goConsole/notify"
	"github.com/MrEthical07/goConsole/storage"
	"golang.org/x/time/rate"
)

// Builder assembles a [Store]. A Builder may be built once.
type Builder struct {
	config     Config
	storage    storage.Storage
	httpClient *http.Client
	logger     *slog.Logger
	clock      clock.Clock
	auditSink  AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets the management API origin.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.API.BaseURL = baseURL
	return b
}

// WithStorage sets the persistence backend. Defaults to [storage.NewMemory].
func (b *Builder) WithStorage(s storage.Storage) *Builder {
	b.storage = s
	return b
}

// WithHTTPClient sets the client used for login. Its Transport also becomes
// the base of [Store.HTTPClient].
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithLogger sets the logger. Defaults to a discarding logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source (tests use clock.NewFake).
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

// WithAuditSink sets the audit sink and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns an empty Store. Persisted
// state is not read until [Store.InitializeAuth].
func (b *Builder) Build() (*Store, error) {
	if b.built {
		return nil, errors.New("goConsole: builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	cfg := b.config
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, w := range cfg.Lint() {
		if w.Severity >= LintWarn {
			logger.Warn("config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
		}
	}
	clk := b.clock
	if clk == nil {
		clk = clock.Real()
	}
	st := b.storage
	if st == nil {
		st = storage.NewMemory()
	}
	hc := b.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.API.Timeout}
	}

	s := &Store{
		config:        cfg,
		storage:       st,
		baseTransport: hc.Transport,
		metrics:       NewMetrics(cfg.Metrics),
		logger:        logger,
		clock:         clk,
		api: &authapi.Client{
			BaseURL:    cfg.API.BaseURL,
			TokenPath:  cfg.API.TokenPath,
			HTTPClient: hc,
			Logger:     logger,
		},
	}
	if cfg.Audit.Enabled {
		s.audit = audit.NewDispatcher(audit.Config{
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink)
	}
	s.notes = notify.NewCenter(notify.Config{
		Lifetime: cfg.Notifications.Lifetime,
		Clock:    clk,
		OnExpire: func(notify.Notification) { s.metrics.Inc(MetricNotificationExpired) },
	})
	if cfg.LoginThrottle.Enabled {
		s.limiter = rate.NewLimiter(rate.Every(cfg.LoginThrottle.Interval), cfg.LoginThrottle.Burst)
	}
	return s, nil
}
