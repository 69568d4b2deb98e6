package goConsole

import (
	"slices"
	"testing"
	"time"
)

func TestLintDefaultConfigHasNoHighFindings(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Fatalf("default config should not fail AsError(LintHigh): %v", err)
	}
	if !slices.Contains(cfg.Lint().Codes(), "login_throttle_disabled") {
		t.Fatal("default config leaves the throttle off and should say so")
	}
}

func TestLintFindings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
		want   bool
	}{
		{"remote plaintext", func(c *Config) { c.API.BaseURL = "http://console.example.net" }, "api_plaintext", true},
		{"loopback plaintext", func(c *Config) { c.API.BaseURL = "http://127.0.0.1:8000" }, "api_plaintext", false},
		{"ipv6 loopback", func(c *Config) { c.API.BaseURL = "http://[::1]:8000" }, "api_plaintext", false},
		{"https", func(c *Config) { c.API.BaseURL = "https://console.example.net" }, "api_plaintext", false},
		{"no timeout", func(c *Config) { c.API.Timeout = 0 }, "api_timeout_disabled", true},
		{"relative token path", func(c *Config) { c.API.TokenPath = "auth/token" }, "token_path_relative", true},
		{"short lifetime", func(c *Config) { c.Notifications.Lifetime = time.Second }, "notification_lifetime_nonstandard", true},
		{"default lifetime", func(c *Config) {}, "notification_lifetime_nonstandard", false},
		{"long lifetime", func(c *Config) { c.Notifications.Lifetime = 2 * time.Minute }, "notification_lifetime_long", true},
		{"throttle on", func(c *Config) { c.LoginThrottle.Enabled = true }, "login_throttle_disabled", false},
		{"lossy audit", func(c *Config) { c.Audit.Enabled = true }, "audit_drop_if_full", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if got := slices.Contains(cfg.Lint().Codes(), tc.code); got != tc.want {
				t.Fatalf("code %q present=%v, want %v (%v)", tc.code, got, tc.want, cfg.Lint())
			}
		})
	}
}

func TestLintSeverityFiltering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://console.example.net"
	cfg.API.Timeout = 0
	ws := cfg.Lint()

	high := ws.BySeverity(LintHigh)
	if len(high) != 1 || high[0].Code != "api_plaintext" {
		t.Fatalf("unexpected HIGH findings %v", high)
	}
	for _, w := range ws.BySeverity(LintWarn) {
		if w.Severity < LintWarn {
			t.Fatalf("BySeverity(LintWarn) returned %s", w.Severity)
		}
	}
	if err := ws.AsError(LintHigh); err == nil {
		t.Fatal("expected AsError(LintHigh) to fail for a plaintext remote API")
	}
	if LintHigh.String() != "HIGH" || LintSeverity(9).String() != "LintSeverity(9)" {
		t.Fatal("unexpected severity names")
	}
}
