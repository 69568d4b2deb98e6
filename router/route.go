package router

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrInvalidRoute is returned when a table cannot be built.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrRedirectLoop is returned when a navigation keeps redirecting.
	ErrRedirectLoop = errors.New("redirect loop")
)

// RedirectFunc computes a redirect target when its route is visited. It is
// called on every evaluation; results are never cached.
type RedirectFunc func(SessionView) string

// Route is one navigable destination and its access requirements.
type Route struct {
	Name string
	// Path is absolute, or relative to the parent for children. Segments
	// starting with ':' match any single non-empty segment.
	Path          string
	RequiresAuth  bool
	RequiresAdmin bool
	Redirect      RedirectFunc
	Children      []Route
}

// Destinations are the pages the guard redirects to.
type Destinations struct {
	Login     string
	Dashboard string
	Admin     string
}

// DefaultDestinations are the console's built-in pages.
var DefaultDestinations = Destinations{
	Login:     "/login",
	Dashboard: "/dashboard",
	Admin:     "/admin/servers",
}

// Root picks the landing page for s: the login page when anonymous, the
// server management page for administrators, the dashboard otherwise.
func (d Destinations) Root(s SessionView) string {
	if s == nil || !s.IsAuthenticated() {
		return d.Login
	}
	if s.IsAdmin() {
		return d.Admin
	}
	return d.Dashboard
}

// RootRedirect returns a RedirectFunc sending visitors to d.Root.
func RootRedirect(d Destinations) RedirectFunc {
	return d.Root
}

func (d Destinations) withDefaults() Destinations {
	if d.Login == "" {
		d.Login = DefaultDestinations.Login
	}
	if d.Dashboard == "" {
		d.Dashboard = DefaultDestinations.Dashboard
	}
	if d.Admin == "" {
		d.Admin = DefaultDestinations.Admin
	}
	return d
}

type entry struct {
	pattern []string
	// chain holds the matched route and its ancestors, outermost first.
	chain []*Route
}

// Table is an ordered, immutable route table.
type Table struct {
	entries []entry
	dest    Destinations
	routes  []Route
}

// NewTable compiles routes. Earlier routes win when patterns overlap.
// Empty fields of dest fall back to DefaultDestinations.
func NewTable(dest Destinations, routes ...Route) (*Table, error) {
	t := &Table{dest: dest.withDefaults(), routes: cloneRoutes(routes)}
	for i := range t.routes {
		if err := t.add(&t.routes[i], "", nil); err != nil {
			return nil, err
		}
	}
	if len(t.entries) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrInvalidRoute)
	}
	return t, nil
}

func (t *Table) add(r *Route, parent string, ancestors []*Route) error {
	p := strings.TrimSpace(r.Path)
	if p == "" && parent == "" {
		return fmt.Errorf("%w: route %q has no path", ErrInvalidRoute, r.Name)
	}
	full := p
	if !strings.HasPrefix(p, "/") {
		full = parent + "/" + p
	}
	full = Normalize(full)

	pattern := split(full)
	for _, seg := range pattern {
		if seg == ":" {
			return fmt.Errorf("%w: route %q has an unnamed parameter", ErrInvalidRoute, full)
		}
	}

	chain := make([]*Route, len(ancestors)+1)
	copy(chain, ancestors)
	chain[len(ancestors)] = r
	t.entries = append(t.entries, entry{pattern: pattern, chain: chain})

	for i := range r.Children {
		if err := t.add(&r.Children[i], full, chain); err != nil {
			return err
		}
	}
	return nil
}

// Destinations returns the table's redirect targets.
func (t *Table) Destinations() Destinations {
	return t.dest
}

// Routes returns a copy of the top-level routes.
func (t *Table) Routes() []Route {
	return cloneRoutes(t.routes)
}

// Match is the result of a successful lookup.
type Match struct {
	Path string
	// Chain is the matched route preceded by its ancestors.
	Chain  []Route
	Params map[string]string
}

// Route returns the innermost matched route.
func (m Match) Route() Route {
	return m.Chain[len(m.Chain)-1]
}

// RequiresAuth reports whether any route in the chain requires a session.
func (m Match) RequiresAuth() bool {
	for _, r := range m.Chain {
		if r.RequiresAuth {
			return true
		}
	}
	return false
}

// RequiresAdmin reports whether any route in the chain requires an
// administrator.
func (m Match) RequiresAdmin() bool {
	for _, r := range m.Chain {
		if r.RequiresAdmin {
			return true
		}
	}
	return false
}

// Match looks up p. Query strings and trailing slashes are ignored.
func (t *Table) Match(p string) (Match, bool) {
	p, _, _ = strings.Cut(p, "?")
	p = Normalize(p)
	segs := split(p)

	for _, e := range t.entries {
		params, ok := matchPattern(e.pattern, segs)
		if !ok {
			continue
		}
		chain := make([]Route, len(e.chain))
		for i, r := range e.chain {
			chain[i] = *r
		}
		return Match{Path: p, Chain: chain, Params: params}, true
	}
	return Match{}, false
}

func matchPattern(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, want := range pattern {
		if strings.HasPrefix(want, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[want[1:]] = segs[i]
			continue
		}
		if want != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// Normalize cleans p into the form routes are matched in: rooted, no
// trailing slash, no empty or dot segments.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func cloneRoutes(in []Route) []Route {
	if in == nil {
		return nil
	}
	out := make([]Route, len(in))
	for i, r := range in {
		r.Children = cloneRoutes(r.Children)
		out[i] = r
	}
	return out
}
