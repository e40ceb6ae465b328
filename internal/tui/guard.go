package tui

import "github.com/okellen/appointed/internal/session"

// screen identifies which view the app is showing.
type screen int

const (
	screenLanding   screen = iota // entry menu, public only
	screenSignIn                  // public only
	screenSignUp                  // public only
	screenDashboard               // protected
)

func (s screen) String() string {
	switch s {
	case screenSignIn:
		return "sign-in"
	case screenSignUp:
		return "sign-up"
	case screenDashboard:
		return "dashboard"
	default:
		return "landing"
	}
}

// isProtected reports whether a screen needs an active credential.
func (s screen) isProtected() bool {
	return s == screenDashboard
}

// routeFor gates every screen transition: a protected screen without a
// credential lands on sign-in, a public-only screen with one lands on the
// dashboard. Nothing else; a pure branch on the session store.
func routeFor(requested screen, sessions *session.Store) screen {
	if requested.isProtected() && !sessions.Active() {
		return screenSignIn
	}
	if !requested.isProtected() && sessions.Active() {
		return screenDashboard
	}
	return requested
}
