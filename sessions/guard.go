package sessions

import "github.com/jrsteele09/recharge-dashboard/navigation"

// Decision is what a route guard wants done with the current screen.
type Decision int

const (
	// Wait means the session is not known yet; render a placeholder.
	Wait Decision = iota
	Allow
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// Guard decides access to a protected screen. A provisionally authenticated session is let
// through before hydration; an anonymous one is only sent to login once hydrated.
func Guard(s State) Decision {
	switch s.Phase() {
	case HydratedAuthenticated:
		return Allow
	case HydratedAnonymous:
		return RedirectToLogin
	}
	if s.Authenticated() {
		return Allow
	}
	return Wait
}

// GuestGuard decides access to a login screen. Signed-in users are sent home, but only once
// hydration has confirmed the session.
func GuestGuard(s State) Decision {
	if s.Phase() == HydratedAuthenticated {
		return RedirectToHome
	}
	return Allow
}

// RouteGuard runs a guard against a provider and performs any redirect through nav.
type RouteGuard struct {
	Provider  *Provider
	Navigator navigation.Navigator
	// Guest selects GuestGuard instead of Guard.
	Guest bool
}

// Check evaluates the guard and navigates if the decision calls for it. It does not navigate
// when nav is already at the target.
func (g RouteGuard) Check() Decision {
	s := g.Provider.State()

	d := Guard(s)
	if g.Guest {
		d = GuestGuard(s)
	}

	var target string
	switch d {
	case RedirectToLogin:
		target = s.Tenant.LoginRoute
	case RedirectToHome:
		target = s.Tenant.HomeRoute
	default:
		return d
	}
	if g.Navigator != nil && g.Navigator.Location() != target {
		g.Navigator.Navigate(target)
	}
	return d
}
