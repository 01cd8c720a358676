// Package session decides, on every protected page mount, whether the
// visitor is signed in.
package session

import (
	"net/url"
	"strings"

	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/token"
	"pathlight-web/pkg/tokenstore"
)

// SignInPath is where unauthenticated visitors are sent
const SignInPath = "/auth/signin"

// State is the guard's view of the visitor
type State int

const (
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one guard run
type Decision struct {
	State       State
	TokenStatus token.Status
	// Cleared is set when the run removed an expired token
	Cleared bool
}

// Guard runs the checking -> authenticated/unauthenticated transition
type Guard struct {
	validator *token.Validator
	logger    *logger.Logger
}

// NewGuard creates a guard over the given validator
func NewGuard(validator *token.Validator, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.NewNop()
	}
	return &Guard{validator: validator, logger: log}
}

// Check reads the store once and resolves the visitor's state. An expired
// token is removed from the store as part of the transition.
func (g *Guard) Check(store tokenstore.Store) Decision {
	d := Decision{State: StateChecking}

	raw, _ := store.GetToken()
	d.TokenStatus = g.validator.Validate(raw)

	switch {
	case d.TokenStatus.Usable():
		d.State = StateAuthenticated
	case d.TokenStatus == token.StatusExpired:
		if err := store.RemoveToken(); err != nil {
			g.logger.WithError(err).Error("Failed to clear expired token")
		} else {
			d.Cleared = true
			g.logger.Debug("Expired token cleared")
		}
		d.State = StateUnauthenticated
	default:
		d.State = StateUnauthenticated
	}
	return d
}

// HandleUnauthorized reacts to a 401 from any backend call
func (g *Guard) HandleUnauthorized(store tokenstore.Store) {
	if err := store.RemoveToken(); err != nil {
		g.logger.WithError(err).Error("Failed to clear token after 401")
		return
	}
	g.logger.Debug("Token cleared after backend 401")
}

// Validator exposes the validator the guard runs with
func (g *Guard) Validator() *token.Validator {
	return g.validator
}

// SignInRedirect builds the sign-in URL that returns to original after login
func SignInRedirect(original string) string {
	target := SafeRedirect(original)
	if target == "/" {
		return SignInPath
	}
	return SignInPath + "?redirect=" + url.QueryEscape(target)
}

// SafeRedirect returns target if it is a local path, "/" otherwise
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return "/"
	}
	// protocol-relative and backslash tricks escape the origin
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	if strings.HasPrefix(target, SignInPath) {
		return "/"
	}
	return target
}
