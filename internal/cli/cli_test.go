package cli

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/internal/mockapi"
	"github.com/MrEthical07/goConsole/token"
	"github.com/alicebob/miniredis/v2"
)

// startMockAPI serves the mock management API with alice (admin) and bob.
func startMockAPI(t *testing.T) (*httptest.Server, *mockapi.Server) {
	t.Helper()
	iss, err := token.NewIssuer(token.IssuerConfig{Secret: []byte("cli-test"), TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	api, err := mockapi.New(mockapi.Config{
		Issuer: iss,
		Accounts: []mockapi.Account{
			{Username: "alice", Password: "wonderland", IsAdmin: true},
			{Username: "bob", Password: "builder"},
		},
	})
	if err != nil {
		t.Fatalf("mockapi.New: %v", err)
	}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)
	return ts, api
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestLoginWhoamiNavigateLogout(t *testing.T) {
	ts, _ := startMockAPI(t)
	state := filepath.Join(t.TempDir(), "session.json")
	base := []string{"--server", ts.URL, "--state-file", state}
	run := func(stdin string, args ...string) string {
		t.Helper()
		out, err := runCLI(t, stdin, append(append([]string{}, base...), args...)...)
		if err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out)
		}
		return out
	}

	if out := run("", "whoami"); !strings.Contains(out, "Not logged in") {
		t.Fatalf("unexpected whoami output: %s", out)
	}
	if out := run("", "navigate", "/"); !strings.Contains(out, "redirect / -> /login") {
		t.Fatalf("unexpected navigate output: %s", out)
	}

	out := run("alice\nwonderland\n", "login")
	if !strings.Contains(out, "Logged in as alice (administrator)") {
		t.Fatalf("unexpected login output: %s", out)
	}
	if info, err := os.Stat(state); err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("expected private state file, got %v %v", info, err)
	}

	if out := run("", "whoami"); !strings.Contains(out, "Username: alice") || !strings.Contains(out, "Admin:    true") {
		t.Fatalf("unexpected whoami output: %s", out)
	}
	if out := run("", "navigate", "/admin/servers"); !strings.Contains(out, "allow /admin/servers (ServerManagement)") {
		t.Fatalf("unexpected navigate output: %s", out)
	}
	if out := run("", "navigate", "/"); !strings.Contains(out, "-> /admin/servers") {
		t.Fatalf("unexpected root output: %s", out)
	}

	if out := run("", "logout"); !strings.Contains(out, "Logged out") {
		t.Fatalf("unexpected logout output: %s", out)
	}
	if out := run("", "navigate", "/dashboard"); !strings.Contains(out, "redirect /dashboard -> /login") {
		t.Fatalf("unexpected navigate output after logout: %s", out)
	}
}

func TestLoginRejected(t *testing.T) {
	ts, _ := startMockAPI(t)
	state := filepath.Join(t.TempDir(), "session.json")

	_, err := runCLI(t, "wrong\n", "--server", ts.URL, "--state-file", state, "login", "-u", "bob", "--password-stdin")
	if err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	out, _ := runCLI(t, "", "--server", ts.URL, "--state-file", state, "whoami")
	if !strings.Contains(out, "Not logged in") {
		t.Fatalf("failed login must not leave a session: %s", out)
	}
}

func TestRedisPersistence(t *testing.T) {
	ts, _ := startMockAPI(t)
	mr := miniredis.RunT(t)
	base := []string{"--server", ts.URL, "--redis-addr", mr.Addr(), "--redis-prefix", "kiosk"}

	if _, err := runCLI(t, "builder\n", append(base, "login", "-u", "bob")...); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !mr.Exists("kiosk:token") || !mr.Exists("kiosk:user") {
		t.Fatalf("expected session in redis, keys=%v", mr.Keys())
	}
	out, err := runCLI(t, "", append(base, "navigate", "/admin/servers")...)
	if err != nil || !strings.Contains(out, "-> /dashboard") {
		t.Fatalf("non-admin must land on the dashboard: %s %v", out, err)
	}
}

func TestSQLitePersistence(t *testing.T) {
	ts, _ := startMockAPI(t)
	base := []string{"--server", ts.URL, "--state-db", filepath.Join(t.TempDir(), "state.db")}

	if _, err := runCLI(t, "wonderland\n", append(base, "login", "-u", "alice")...); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := runCLI(t, "", append(base, "navigate", "/")...)
	if err != nil || !strings.Contains(out, "-> /admin/servers") {
		t.Fatalf("restored admin should be sent to server management: %s %v", out, err)
	}
}

func TestStatus(t *testing.T) {
	ts, api := startMockAPI(t)
	state := filepath.Join(t.TempDir(), "session.json")

	out, err := runCLI(t, "", "--server", ts.URL, "--state-file", state, "status")
	if err != nil || !strings.Contains(out, ": online") {
		t.Fatalf("expected online, got %q %v", out, err)
	}

	api.SetMaintenance(true)
	out, err = runCLI(t, "", "--server", ts.URL, "--state-file", state, "status")
	if err != nil || !strings.Contains(out, ": maintenance") {
		t.Fatalf("expected maintenance, got %q %v", out, err)
	}
}

func TestRoutesFromFile(t *testing.T) {
	dir := t.TempDir()
	routes := filepath.Join(dir, "routes.yaml")
	doc := "routes:\n" +
		"  - name: Login\n    path: /login\n" +
		"  - name: Streams\n    path: /streams\n    requiresAuth: true\n    children:\n      - name: Stream\n        path: :name\n" +
		"  - path: /\n    redirect: root\n"
	if err := os.WriteFile(routes, []byte(doc), 0o644); err != nil {
		t.Fatalf("write routes: %v", err)
	}

	out, err := runCLI(t, "", "--routes", routes, "routes")
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	for _, want := range []string{"Login", "/streams/:name", "auth", "redirect"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "", "--routes", routes, "--state-file", filepath.Join(dir, "s.json"), "navigate", "/streams/cam1")
	if err != nil || !strings.Contains(out, "-> /login") {
		t.Fatalf("expected login redirect, got %q %v", out, err)
	}
	out, _ = runCLI(t, "", "--routes", routes, "--state-file", filepath.Join(dir, "s.json"), "navigate", "/nope")
	if !strings.Contains(out, "not found /nope") {
		t.Fatalf("expected not found, got %q", out)
	}
}

func TestParseAccounts(t *testing.T) {
	got, err := parseAccounts([]string{"alice:pw:admin", "bob:pw"})
	if err != nil {
		t.Fatalf("parseAccounts: %v", err)
	}
	if len(got) != 2 || !got[0].IsAdmin || got[1].IsAdmin || got[1].Username != "bob" {
		t.Fatalf("unexpected accounts %+v", got)
	}
	for _, bad := range []string{"alice", ":pw", "alice:", "alice:pw:root", "a:b:c:d"} {
		if _, err := parseAccounts([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMockAPIAttemptLimitNeedsRedis(t *testing.T) {
	_, err := runCLI(t, "", "mock-api", "--listen", "127.0.0.1:0", "--max-attempts", "3")
	if err == nil || !strings.Contains(err.Error(), "--redis-addr") {
		t.Fatalf("expected --redis-addr error, got %v", err)
	}
}
