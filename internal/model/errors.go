package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginInProgress    = errors.New("login already in progress")
	ErrMalformedResponse  = errors.New("malformed authentication response")
)

// EndpointError is a non-success response from the authentication endpoint.
type EndpointError struct {
	StatusCode int
	Message    string
}

func (e *EndpointError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("authentication endpoint returned status %d: %s", e.StatusCode, e.Message)
}
