package goConsole

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/clock"
	"github.com/MrEthical07/goConsole/storage"
	"github.com/MrEthical07/goConsole/token"
)

type testAccount struct {
	password string
	admin    bool
}

// tokenServer mimics the management API's /api/auth/token endpoint.
type tokenServer struct {
	*httptest.Server
	mu       sync.Mutex
	accounts map[string]testAccount
	issuer   *token.Issuer
	// override, when set, replaces the token handler.
	override http.HandlerFunc
	hits     int
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	iss, err := token.NewIssuer(token.IssuerConfig{Secret: []byte("test-secret"), TTL: 30 * time.Minute})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	ts := &tokenServer{
		accounts: map[string]testAccount{
			"alice": {password: "wonderland", admin: true},
			"bob":   {password: "builder", admin: false},
		},
		issuer: iss,
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.serve))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) setOverride(h http.HandlerFunc) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.override = h
}

func (ts *tokenServer) hitCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.hits
}

func (ts *tokenServer) serve(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	ts.hits++
	override := ts.override
	ts.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}
	if r.Method != http.MethodPost || r.URL.Path != "/api/auth/token" {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"detail":"bad form"}`, http.StatusUnprocessableEntity)
		return
	}
	acct, ok := ts.accounts[r.PostForm.Get("username")]
	if !ok || acct.password != r.PostForm.Get("password") {
		w.Header().Set("WWW-Authenticate", "Bearer")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
		return
	}
	raw, err := ts.issuer.Issue(r.PostForm.Get("username"), acct.admin)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"access_token":"` + raw + `","token_type":"bearer"}`))
}

type testStore struct {
	*Store
	server  *tokenServer
	storage *storage.Memory
	clock   *clock.Fake
}

func newTestStore(t *testing.T, mutate ...func(*Config)) *testStore {
	t.Helper()
	ts := newTokenServer(t)
	mem := storage.NewMemory()
	fc := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	cfg := DefaultConfig()
	cfg.API.BaseURL = ts.URL
	cfg.Metrics.Enabled = true
	for _, m := range mutate {
		m(&cfg)
	}

	store, err := New().
		WithConfig(cfg).
		WithStorage(mem).
		WithClock(fc).
		WithHTTPClient(ts.Client()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(store.Close)
	return &testStore{Store: store, server: ts, storage: mem, clock: fc}
}

// failingStorage fails every operation once armed.
type failingStorage struct {
	*storage.Memory
	mu   sync.Mutex
	fail bool
}

var errDiskFull = errors.New("disk full")

func (f *failingStorage) arm(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *failingStorage) armed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.armed() {
		return "", false, errDiskFull
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.armed() {
		return errDiskFull
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *failingStorage) Delete(ctx context.Context, keys ...string) error {
	if f.armed() {
		return errDiskFull
	}
	return f.Memory.Delete(ctx, keys...)
}

func assertCleared(t *testing.T, s *testStore) {
	t.Helper()
	snap := s.Snapshot()
	if snap.Token != "" || snap.User != nil || s.IsAuthenticated() || s.IsAdmin() {
		t.Fatalf("expected cleared session, got %+v", snap)
	}
	if s.AuthorizationHeader() != "" {
		t.Fatalf("expected no bearer credential, got %q", s.AuthorizationHeader())
	}
	ctx := context.Background()
	for _, key := range []string{"token", "user"} {
		if _, ok, _ := s.storage.Get(ctx, key); ok {
			t.Fatalf("expected persisted %s to be removed", key)
		}
	}
}
