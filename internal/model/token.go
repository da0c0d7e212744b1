package model

import "time"

// TokenClaims is the informational view of a bearer token.
type TokenClaims struct {
	Subject     string
	Role        string
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user User) (string, error)
}
