package goConsole

import (
	"context"
	"testing"

	"github.com/MrEthical07/goConsole/router"
)

func resolve(t *testing.T, g *router.Guard, path string) router.Decision {
	t.Helper()
	d, err := g.Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", path, err)
	}
	return d
}

func TestScenarioAdminLoginOpensAdminPages(t *testing.T) {
	s := newTestStore(t)
	g := router.NewGuard(router.DefaultTable(), s.Store)

	if d := resolve(t, g, "/"); d.Target != "/login" {
		t.Fatalf("anonymous root went to %q", d.Target)
	}

	if _, err := s.Login(context.Background(), Credentials{Username: "alice", Password: "wonderland"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	u, _ := s.CurrentUser()
	if u != (User{Username: "alice", IsAdmin: true}) || !s.IsAuthenticated() {
		t.Fatalf("unexpected session %+v", s.Snapshot())
	}

	if d := resolve(t, g, "/admin/servers"); d.Outcome != router.Allow {
		t.Fatalf("admin page: got %s -> %q", d.Outcome, d.Target)
	}
	if d := resolve(t, g, "/"); d.Target != "/admin/servers" {
		t.Fatalf("admin root went to %q", d.Target)
	}
}

func TestScenarioRejectedLoginKeepsPagesClosed(t *testing.T) {
	s := newTestStore(t)
	g := router.NewGuard(router.DefaultTable(), s.Store)

	if _, err := s.Login(context.Background(), Credentials{Username: "alice", Password: "guess"}); err == nil {
		t.Fatal("expected login to fail")
	}
	assertCleared(t, s)

	for _, p := range []string{"/dashboard", "/admin/servers"} {
		d := resolve(t, g, p)
		if d.Outcome != router.Redirect || d.Target != "/login" {
			t.Fatalf("%s: got %s -> %q", p, d.Outcome, d.Target)
		}
	}
}

func TestScenarioOperatorIsSentToDashboard(t *testing.T) {
	s := newTestStore(t)
	g := router.NewGuard(router.DefaultTable(), s.Store)
	ctx := context.Background()

	if _, err := s.Login(ctx, Credentials{Username: "bob", Password: "builder"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if d := resolve(t, g, "/admin/servers"); d.Target != "/dashboard" {
		t.Fatalf("non-admin on admin page went to %q, not the dashboard", d.Target)
	}
	if d := resolve(t, g, "/"); d.Target != "/dashboard" {
		t.Fatalf("operator root went to %q", d.Target)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if d := resolve(t, g, "/"); d.Target != "/login" {
		t.Fatalf("root after logout went to %q", d.Target)
	}
}
