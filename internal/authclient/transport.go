package authclient

import (
	"net/http"

	"github.com/dtroode/electrobill-session/internal/model"
)

// BearerTransport attaches the session token to outgoing API requests.
// Requests pass through untouched while nobody is logged in.
type BearerTransport struct {
	Source model.TokenSource
	Base   http.RoundTripper
}

// NewBearerTransport wraps base, falling back to http.DefaultTransport.
func NewBearerTransport(src model.TokenSource, base http.RoundTripper) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &BearerTransport{Source: src, Base: base}
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.Source.Token()
	if token == "" || req.Header.Get("Authorization") != "" {
		return t.Base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.Base.RoundTrip(clone)
}
