package session

import "github.com/dtroode/electrobill-session/internal/model"

// Decision tells a protected view what to do with the current session.
type Decision int

const (
	// DecisionLoading means the session is still being resolved.
	DecisionLoading Decision = iota
	// DecisionRedirectLogin means nobody is logged in.
	DecisionRedirectLogin
	// DecisionRender means protected content may be shown.
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirectLogin:
		return "redirect-login"
	case DecisionRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decide maps a snapshot onto the action a protected view should take.
func Decide(s model.Snapshot) Decision {
	switch {
	case s.IsLoading():
		return DecisionLoading
	case !s.IsAuthenticated():
		return DecisionRedirectLogin
	default:
		return DecisionRender
	}
}

// Allows gates a single element. Without required permissions any logged-in
// user passes; otherwise at least one of them must be held.
func (a *Authority) Allows(required ...string) bool {
	if len(required) == 0 {
		return a.IsAuthenticated()
	}
	return a.HasAnyPermission(required...)
}
