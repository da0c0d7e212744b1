package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dtroode/electrobill-session/internal/logger"
	"github.com/dtroode/electrobill-session/internal/model"
)

const (
	// LoginPath is the authentication endpoint path on the ElectroBill backend.
	LoginPath = "/api/auth/login"
	// MePath returns the account behind the presented bearer token.
	MePath = "/api/auth/me"
)

// maxErrorBody bounds how much of a failure response is read.
const maxErrorBody = 64 << 10

var _ model.Authenticator = (*Client)(nil)

// Client calls the ElectroBill authentication endpoint over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *logger.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP allows injecting an HTTP client (used in tests).
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Authenticate exchanges credentials for a token and user profile.
func (c *Client) Authenticate(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	body, err := json.Marshal(loginRequest{Email: creds.Identifier, Password: creds.Secret})
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LoginPath, bytes.NewReader(body))
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Auth client: request failed",
			"url", req.URL.String(),
			"error", err.Error())
		return model.AuthResult{}, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Auth client: response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.AuthResult{}, parseError(resp)
	}

	var result model.AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.AuthResult{}, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if result.Token == "" || result.User.ID == "" {
		return model.AuthResult{}, fmt.Errorf("%w: missing token or user id", model.ErrMalformedResponse)
	}

	return result, nil
}

// Verify asks the backend who the token from src belongs to. The token is
// attached by BearerTransport, so an empty source is sent without one and
// the backend answers 401.
func (c *Client) Verify(ctx context.Context, src model.TokenSource) (model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+MePath, nil)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	authed := *c.httpClient
	authed.Transport = NewBearerTransport(src, c.httpClient.Transport)

	resp, err := authed.Do(req)
	if err != nil {
		c.logger.Warn("Auth client: verify request failed",
			"url", req.URL.String(),
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.User{}, parseError(resp)
	}

	var user model.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if user.ID == "" {
		return model.User{}, fmt.Errorf("%w: missing user id", model.ErrMalformedResponse)
	}

	return user, nil
}

func parseError(resp *http.Response) error {
	endpointErr := &model.EndpointError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return wrapStatus(endpointErr)
	}

	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			endpointErr.Message = errResp.Message
		case errResp.Error != "":
			endpointErr.Message = errResp.Error
		}
	}

	return wrapStatus(endpointErr)
}

// wrapStatus keeps 401 responses matchable with errors.Is(err, ErrInvalidCredentials).
func wrapStatus(endpointErr *model.EndpointError) error {
	if endpointErr.StatusCode == http.StatusUnauthorized {
		return errors.Join(endpointErr, model.ErrInvalidCredentials)
	}
	return endpointErr
}
