package router

// DefaultRoutes returns the console's page table: the login page, the
// administrators' server management page, the operators' dashboard and the
// dynamic root.
func DefaultRoutes(dest Destinations) []Route {
	dest = dest.withDefaults()
	return []Route{
		{Name: "Login", Path: dest.Login},
		{Name: "ServerManagement", Path: dest.Admin, RequiresAuth: true, RequiresAdmin: true},
		{Name: "ClientDashboard", Path: dest.Dashboard, RequiresAuth: true},
		{Name: "Root", Path: "/", Redirect: RootRedirect(dest)},
	}
}

// DefaultTable returns the compiled DefaultRoutes for DefaultDestinations.
func DefaultTable() *Table {
	t, err := NewTable(DefaultDestinations, DefaultRoutes(DefaultDestinations)...)
	if err != nil {
		panic("router: default table: " + err.Error())
	}
	return t
}
