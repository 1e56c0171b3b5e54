package guard

import "github.com/nkiryanov/bookadmin/internal/session"

const (
	LoginPath   = "/login"
	DefaultPath = "/dashboard"
)

type Decision int

const (
	Render Decision = iota
	RedirectLogin
	RedirectDefault
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	default:
		return "invalid"
	}
}

// Location is where the decision sends the operator. Empty for Render
func (d Decision) Location() string {
	switch d {
	case RedirectLogin:
		return LoginPath
	case RedirectDefault:
		return DefaultPath
	default:
		return ""
	}
}

type Route struct {
	Path      string
	AdminOnly bool
}

// Decide is a pure function of the session state and the route.
// The requested path is not remembered: after login the operator lands on DefaultPath.
// StateUnknown is treated like StateAnonymous
func Decide(state session.State, route Route, isAdmin bool) Decision {
	if state != session.StateAuthenticated {
		return RedirectLogin
	}
	if route.AdminOnly && !isAdmin {
		return RedirectDefault
	}
	return Render
}
