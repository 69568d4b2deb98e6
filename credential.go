package goConsole

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// AuthorizationHeader returns the Authorization value outbound requests
// carry, or "" when no credential is active.
func (s *Store) AuthorizationHeader() string {
	tok := s.bearer.Load()
	if tok == nil {
		return ""
	}
	return bearerPrefix + *tok
}

// Transport wraps base so every request carries the active bearer
// credential. The credential is read per request: after ClearAuth or Logout
// requests go out without it. A request that already sets Authorization is
// left alone. A nil base means http.DefaultTransport.
func (s *Store) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &bearerTransport{base: base, store: s}
}

// HTTPClient returns a client for calls to the management API that carries
// the session's credential.
func (s *Store) HTTPClient() *http.Client {
	return &http.Client{
		Transport: s.Transport(s.baseTransport),
		Timeout:   s.config.API.Timeout,
	}
}

type bearerTransport struct {
	base  http.RoundTripper
	store *Store
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	header := t.store.AuthorizationHeader()
	if header == "" || req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", header)
	return t.base.RoundTrip(out)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}
	token := value[len(bearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}
