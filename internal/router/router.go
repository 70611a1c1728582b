// Package router holds the route table and the pre-navigation authorization
// guard. The guard only reads session state (triggering the one-shot
// revalidation when needed); it never logs anyone in or out itself.
package router

import (
	"context"
	"sync"

	"github.com/valdiviesod/citasalud-cli/internal/constants"
	"github.com/valdiviesod/citasalud-cli/internal/logger"
	"github.com/valdiviesod/citasalud-cli/internal/models"
	"github.com/valdiviesod/citasalud-cli/internal/session"
)

// Route describes one destination and its access metadata. Metadata is
// aggregated over the parent chain, so a child of an admin-only route is
// admin-only without restating it.
type Route struct {
	Name         string
	Path         string
	Parent       string
	RequiresAuth bool
	GuestOnly    bool
	Roles        []models.Role
}

// Decision is the guard's verdict for one transition.
type Decision struct {
	Proceed    bool
	RedirectTo string
}

// Router owns the route table and the current location.
type Router struct {
	session *session.Machine

	mu      sync.Mutex
	routes  map[string]Route
	current string
}

// New builds a router over the default route table, starting at home.
func New(sess *session.Machine) *Router {
	r := &Router{
		session: sess,
		routes:  make(map[string]Route),
		current: constants.RouteHome,
	}
	for _, route := range DefaultRoutes() {
		r.routes[route.Name] = route
	}
	return r
}

// DefaultRoutes mirrors the web client's route table. Patient management
// and doctor management are admin screens; the appointment calendar is open
// to any authenticated user.
func DefaultRoutes() []Route {
	return []Route{
		{Name: constants.RouteHome, Path: "/"},
		{Name: constants.RouteLogin, Path: "/login", GuestOnly: true},
		{Name: constants.RouteRegister, Path: "/register", GuestOnly: true},
		{Name: constants.RouteCitas, Path: "/citas", RequiresAuth: true},
		{Name: constants.RoutePacientes, Path: "/pacientes", RequiresAuth: true, Roles: []models.Role{models.RoleAdmin}},
		{Name: constants.RouteDoctores, Path: "/doctores", RequiresAuth: true, Roles: []models.Role{models.RoleAdmin}},
		{Name: constants.RouteTratamientos, Path: "/tratamientos", RequiresAuth: true},
		{Name: constants.RouteUnauthorized, Path: "/unauthorized"},
	}
}

// Register adds or replaces a route.
func (r *Router) Register(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route.Name] = route
}

// Current returns the current route name.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// requirements aggregates access metadata over the route's parent chain.
func (r *Router) requirements(name string) (requiresAuth, guestOnly bool, roles []models.Role, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		seen[name] = true
		route, found := r.routes[name]
		if !found {
			return false, false, nil, false
		}
		ok = true
		requiresAuth = requiresAuth || route.RequiresAuth
		guestOnly = guestOnly || route.GuestOnly
		roles = append(roles, route.Roles...)
		name = route.Parent
	}
	return requiresAuth, guestOnly, roles, ok
}

// Guard evaluates the transition to the named route. It suspends on the
// one-shot CheckAuth when the session has not yet been checked. Decision
// order: authentication, then guest-only, then roles; an authenticated
// user failing a role check lands on unauthorized, never on login.
func (r *Router) Guard(ctx context.Context, to string) Decision {
	if !r.session.HasBeenChecked() {
		r.session.CheckAuth(ctx)
	}

	requiresAuth, guestOnly, roles, ok := r.requirements(to)
	if !ok {
		logger.Warn("Navigation to unknown route", "route", to)
		return Decision{RedirectTo: constants.RouteHome}
	}

	authenticated := r.session.IsAuthenticated()

	if requiresAuth && !authenticated {
		return Decision{RedirectTo: constants.RouteLogin}
	}
	if guestOnly && authenticated {
		return Decision{RedirectTo: constants.RouteHome}
	}
	if len(roles) > 0 && !r.session.HasRole(roles...) {
		return Decision{RedirectTo: constants.RouteUnauthorized}
	}
	return Decision{Proceed: true}
}

// Navigate runs the guard and moves to the resulting route, following
// redirects through the guard as well. Returns the route actually landed
// on.
func (r *Router) Navigate(ctx context.Context, to string) string {
	// Redirect targets are themselves guarded; the table is small enough
	// that two hops always reach a stable route.
	for i := 0; i < 3; i++ {
		decision := r.Guard(ctx, to)
		if decision.Proceed {
			break
		}
		if decision.RedirectTo == to {
			break
		}
		logger.Debug("Navigation redirected", "from", to, "to", decision.RedirectTo)
		to = decision.RedirectTo
	}

	r.mu.Lock()
	r.current = to
	r.mu.Unlock()
	return to
}

// HandleSessionInvalid is the gateway's 401 subscriber: tear down the
// in-memory session, then move to the login route unless already there, so
// repeated 401s cannot loop. The session reset happens even when the route
// does not change; the credential is gone either way.
func (r *Router) HandleSessionInvalid() {
	r.session.Invalidate()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == constants.RouteLogin {
		return
	}
	logger.Info("Session invalidated, redirecting to login", "from", r.current)
	r.current = constants.RouteLogin
}
