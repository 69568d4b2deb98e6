package goConsole

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/notify"
)

// Config holds every tunable of a [Store]. Obtain defaults from
// [DefaultConfig] and override fields before passing it to the Builder.
type Config struct {
	API           APIConfig
	Storage       StorageConfig
	Notifications NotificationConfig
	LoginThrottle LoginThrottleConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the management API's token endpoint.
type APIConfig struct {
	// BaseURL is the API origin, e.g. "https://console.example.net".
	BaseURL string
	// TokenPath is resolved against BaseURL.
	TokenPath string
	// Timeout applies to the login request and to HTTPClient.
	Timeout time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig names the two persisted entries.
type StorageConfig struct {
	TokenKey string
	UserKey  string
}

/*
====================================
NOTIFICATION CONFIG
====================================
*/

// NotificationConfig controls notification expiry.
type NotificationConfig struct {
	Lifetime time.Duration
}

/*
====================================
LOGIN THROTTLE CONFIG
====================================
*/

// LoginThrottleConfig limits how often Login may contact the API. It is a
// local courtesy limit; the server enforces its own.
type LoginThrottleConfig struct {
	Enabled  bool
	Interval time.Duration
	Burst    int
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// FlushTimeout bounds how long Close waits for queued events.
	FlushTimeout time.Duration
}

// MetricsConfig enables in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the settings the console ships with.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8000",
			TokenPath: "/api/auth/token",
			Timeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			TokenKey: "token",
			UserKey:  "user",
		},
		Notifications: NotificationConfig{
			Lifetime: notify.DefaultLifetime,
		},
		LoginThrottle: LoginThrottleConfig{
			Enabled:  false,
			Interval: time.Second,
			Burst:    5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize:   256,
			DropIfFull:   true,
			FlushTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}
	if c.API.TokenPath == "" {
		return errors.New("API TokenPath is required")
	}
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}

	if c.Storage.TokenKey == "" || c.Storage.UserKey == "" {
		return errors.New("Storage TokenKey and UserKey are required")
	}
	if c.Storage.TokenKey == c.Storage.UserKey {
		return errors.New("Storage TokenKey and UserKey must differ")
	}

	if c.Notifications.Lifetime <= 0 {
		return errors.New("Notifications Lifetime must be > 0")
	}

	if c.LoginThrottle.Enabled {
		if c.LoginThrottle.Interval <= 0 {
			return errors.New("LoginThrottle Interval must be > 0 when enabled")
		}
		if c.LoginThrottle.Burst <= 0 {
			return errors.New("LoginThrottle Burst must be > 0 when enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Audit.Enabled && c.Audit.FlushTimeout <= 0 {
		return errors.New("Audit FlushTimeout must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}
