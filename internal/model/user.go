package model

import "slices"

// User is the profile returned by the authentication endpoint.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Clone returns a deep copy so callers cannot mutate session-held state.
func (u User) Clone() User {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}

// DisplayName returns "First Last" when known, falling back to username and email.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
