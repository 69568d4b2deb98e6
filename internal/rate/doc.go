// Package rate counts failed token requests in Redis so the mock management
// API can refuse brute-force attempts the way the real API does.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - lf:  failed logins per username
//   - lfi: failed logins per client IP
package rate
