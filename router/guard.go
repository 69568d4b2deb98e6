package router

import (
	"fmt"
	"log/slog"
	"strings"
)

// maxHops bounds how many redirects one navigation may follow.
const maxHops = 8

// SessionView is the read-only session state the guard consults.
type SessionView interface {
	IsAuthenticated() bool
	IsAdmin() bool
}

// Outcome is the guard's verdict for one navigation.
type Outcome uint8

const (
	// Allow lets the navigation proceed to the requested path.
	Allow Outcome = iota
	// Redirect sends the navigation to Decision.Target instead.
	Redirect
	// NotFound means no route matches.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Decision is the result of [Guard.Resolve].
type Decision struct {
	Outcome Outcome
	// Path is the normalized requested path.
	Path string
	// Target is where the navigation ends up: the requested path for Allow,
	// the final redirect destination for Redirect, the unmatched path for
	// NotFound.
	Target string
	// Match describes the route at Target. Empty for NotFound.
	Match Match
}

// Guard evaluates navigations against a table and a session. It holds no
// state between evaluations.
type Guard struct {
	table   *Table
	session SessionView
	logger  *slog.Logger
}

// NewGuard returns a guard reading session on every evaluation.
func NewGuard(table *Table, session SessionView) *Guard {
	return &Guard{
		table:   table,
		session: session,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// WithLogger sets the logger decisions are reported to at debug level.
func (g *Guard) WithLogger(l *slog.Logger) *Guard {
	if l != nil {
		g.logger = l
	}
	return g
}

// Table returns the guard's route table.
func (g *Guard) Table() *Table {
	return g.table
}

// Resolve decides where a navigation to p ends up. Redirects, both those
// declared on routes and those imposed by access checks, are followed until
// a page is allowed; ErrRedirectLoop is returned after too many hops.
func (g *Guard) Resolve(p string) (Decision, error) {
	requested := Normalize(stripQuery(p))
	target := p

	for hop := 0; hop <= maxHops; hop++ {
		m, ok := g.table.Match(target)
		if !ok {
			d := Decision{Outcome: NotFound, Path: requested, Target: Normalize(stripQuery(target))}
			g.logDecision(d)
			return d, nil
		}

		next := g.check(m)
		if next == "" {
			d := Decision{Outcome: Allow, Path: requested, Target: m.Path, Match: m}
			if hop > 0 {
				d.Outcome = Redirect
				d.Target = target
			}
			g.logDecision(d)
			return d, nil
		}
		target = next
	}
	return Decision{}, fmt.Errorf("%w: %s", ErrRedirectLoop, requested)
}

// check returns where m must be redirected, or "" to allow it.
func (g *Guard) check(m Match) string {
	route := m.Route()
	if route.Redirect != nil {
		return route.Redirect(g.session)
	}

	dest := g.table.Destinations()
	authenticated := g.session != nil && g.session.IsAuthenticated()
	if m.RequiresAuth() && !authenticated {
		return dest.Login
	}
	if m.RequiresAdmin() && (g.session == nil || !g.session.IsAdmin()) {
		return dest.Dashboard
	}
	return ""
}

// Root resolves the dynamic landing page for the current session.
func (g *Guard) Root() string {
	return g.table.Destinations().Root(g.session)
}

func (g *Guard) logDecision(d Decision) {
	g.logger.Debug("navigation resolved",
		"path", d.Path,
		"outcome", d.Outcome.String(),
		"target", d.Target,
	)
}

func stripQuery(p string) string {
	p, _, _ = strings.Cut(p, "?")
	return p
}
