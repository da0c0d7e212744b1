package model

import "context"

// DefaultLoginError is reported when the endpoint gives no usable message.
const DefaultLoginError = "Login failed. Please check your credentials."

// Credentials is the login request sent to the authentication endpoint.
type Credentials struct {
	Identifier string
	Secret     string
}

// AuthResult is a successful authentication endpoint response.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Authenticator exchanges credentials for a token and user profile.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (AuthResult, error)
}

// TokenSource yields the bearer token of the current session, or "" when logged out.
type TokenSource interface {
	Token() string
}

// LoginOutcome is the discriminated result of a login attempt.
type LoginOutcome struct {
	Success bool
	Error   string
}

// LoginSucceeded builds a successful outcome.
func LoginSucceeded() LoginOutcome {
	return LoginOutcome{Success: true}
}

// LoginFailed builds a failed outcome with the given message.
func LoginFailed(msg string) LoginOutcome {
	return LoginOutcome{Success: false, Error: msg}
}
