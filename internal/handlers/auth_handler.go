package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/domain"
	"github.com/your-org/wanted/internal/middleware"
)

// Authenticator checks credentials and issues tokens
type Authenticator interface {
	Login(username, password string) (string, domain.User, error)
}

// AuthHandler handles login
type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthHandler creates a new login handler
func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login body",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		respondError(w, http.StatusBadRequest, "invalid request body", requestID)
		return
	}

	token, user, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.Warn("login rejected",
				zap.String("request_id", requestID),
				zap.String("username", req.Username),
			)
			respondError(w, http.StatusUnauthorized, "Invalid credentials", requestID)
			return
		}
		h.logger.Error("failed to issue token",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "failed to issue token", requestID)
		return
	}

	h.logger.Info("user logged in",
		zap.String("request_id", requestID),
		zap.String("username", user.Username),
	)
	respondJSON(w, h.logger, http.StatusOK, LoginResponse{Token: token, User: user}, requestID)
}
