package router

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// RedirectRoot is the redirect value that selects the dynamic landing page.
const RedirectRoot = "root"

type fileSpec struct {
	Destinations struct {
		Login     string `yaml:"login"`
		Dashboard string `yaml:"dashboard"`
		Admin     string `yaml:"admin"`
	} `yaml:"destinations"`
	Routes []routeSpec `yaml:"routes"`
}

type routeSpec struct {
	Name          string      `yaml:"name"`
	Path          string      `yaml:"path"`
	RequiresAuth  bool        `yaml:"requiresAuth"`
	RequiresAdmin bool        `yaml:"requiresAdmin"`
	Redirect      string      `yaml:"redirect"`
	Children      []routeSpec `yaml:"children"`
}

// LoadTable reads a YAML route table:
//
//	destinations:
//	  login: /login
//	  dashboard: /dashboard
//	  admin: /admin/servers
//	routes:
//	  - name: ServerManagement
//	    path: /admin/servers
//	    requiresAuth: true
//	    requiresAdmin: true
//	  - path: /
//	    redirect: root
//
// A redirect of "root" selects the dynamic landing page; any other value is
// a fixed target. Unknown keys are rejected.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileSpec
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty route file", ErrInvalidRoute)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoute, err)
	}

	dest := Destinations{
		Login:     doc.Destinations.Login,
		Dashboard: doc.Destinations.Dashboard,
		Admin:     doc.Destinations.Admin,
	}.withDefaults()

	routes := make([]Route, 0, len(doc.Routes))
	for _, rs := range doc.Routes {
		routes = append(routes, rs.build(dest))
	}
	return NewTable(dest, routes...)
}

func (rs routeSpec) build(dest Destinations) Route {
	r := Route{
		Name:          rs.Name,
		Path:          rs.Path,
		RequiresAuth:  rs.RequiresAuth,
		RequiresAdmin: rs.RequiresAdmin,
	}
	switch target := strings.TrimSpace(rs.Redirect); {
	case target == "":
	case strings.EqualFold(target, RedirectRoot):
		r.Redirect = RootRedirect(dest)
	default:
		r.Redirect = func(SessionView) string { return target }
	}
	for _, c := range rs.Children {
		r.Children = append(r.Children, c.build(dest))
	}
	return r
}
