package goConsole

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goConsole/notify"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	// LintInfo marks a deliberate but unusual choice.
	LintInfo LintSeverity = iota
	// LintWarn marks a setting that weakens behavior.
	LintWarn
	// LintHigh marks a setting that exposes the session credential.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding of [Config.Lint].
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of findings, in check order.
type LintResult []LintWarning

// Codes returns the warning codes.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above threshold.
func (r LintResult) BySeverity(threshold LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= threshold {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every warning at or above threshold, or nil.
func (r LintResult) AsError(threshold LintSeverity) error {
	hits := r.BySeverity(threshold)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, w.Code+": "+w.Message)
	}
	return fmt.Errorf("config lint (%s): %s", threshold, strings.Join(parts, "; "))
}

// Lint reports valid but questionable settings. Call Validate first; Lint
// does not repeat its checks.
func (c *Config) Lint() LintResult {
	var r LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		r = append(r, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("api_plaintext", LintHigh, "bearer token is sent unencrypted to %s", u.Host)
	}
	if c.API.Timeout == 0 {
		add("api_timeout_disabled", LintWarn, "login requests can hang indefinitely")
	}
	if !strings.HasPrefix(c.API.TokenPath, "/") {
		add("token_path_relative", LintWarn, "token path %q is resolved relative to the base URL path", c.API.TokenPath)
	}
	if c.Notifications.Lifetime != notify.DefaultLifetime {
		add("notification_lifetime_nonstandard", LintInfo, "notifications expire after %s instead of %s", c.Notifications.Lifetime, notify.DefaultLifetime)
	}
	if c.Notifications.Lifetime > time.Minute {
		add("notification_lifetime_long", LintWarn, "notifications pile up for %s", c.Notifications.Lifetime)
	}
	if !c.LoginThrottle.Enabled {
		add("login_throttle_disabled", LintInfo, "only the server limits login attempts")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}
	return r
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
