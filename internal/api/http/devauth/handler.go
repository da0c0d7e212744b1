package devauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dtroode/electrobill-session/internal/logger"
	"github.com/dtroode/electrobill-session/internal/model"
)

// EndpointRecorder counts answered login requests by HTTP status.
type EndpointRecorder interface {
	EndpointLogin(status int)
}

// TokenService issues tokens at login and checks them on protected routes.
type TokenService interface {
	model.TokenIssuer
	Verify(token string) (model.TokenClaims, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Handler serves the authentication endpoint.
type Handler struct {
	directory *Directory
	tokens    TokenService
	metrics   EndpointRecorder
	logger    *logger.Logger
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler(directory *Directory, tokens TokenService, metrics EndpointRecorder, logger *logger.Logger) *Handler {
	return &Handler{
		directory: directory,
		tokens:    tokens,
		metrics:   metrics,
		logger:    logger,
	}
}

// Login answers POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondLogin(w, http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.respondLogin(w, http.StatusBadRequest, errorResponse{Message: "Email and password are required"})
		return
	}

	user, err := h.directory.Verify(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			h.logger.Info("Dev auth: invalid credentials", "email", req.Email)
			h.respondLogin(w, http.StatusUnauthorized, errorResponse{Message: "Invalid credentials"})
			return
		}
		h.logger.Error("Dev auth: failed to verify credentials", "error", err.Error())
		h.respondLogin(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Dev auth: failed to issue token",
			"user_id", user.ID,
			"error", err.Error())
		h.respondLogin(w, http.StatusInternalServerError, errorResponse{Message: "Unable to issue token"})
		return
	}

	h.logger.Info("Dev auth: login succeeded", "user_id", user.ID, "role", user.Role)
	h.respondLogin(w, http.StatusOK, model.AuthResult{Token: token, User: user})
}

// Me answers GET /api/auth/me with the account behind the bearer token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Missing bearer token"})
		return
	}

	claims, err := h.tokens.Verify(raw)
	if err != nil {
		h.logger.Info("Dev auth: rejected bearer token", "error", err.Error())
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid token"})
		return
	}

	user, ok := h.directory.Lookup(claims.Subject)
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid token"})
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) respondLogin(w http.ResponseWriter, status int, body any) {
	if h.metrics != nil {
		h.metrics.EndpointLogin(status)
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Dev auth: failed to write response", "error", err.Error())
	}
}
