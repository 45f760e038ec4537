package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pocketpet/api/internal/models"
	"github.com/pocketpet/api/internal/service"
)

// AccountService is what the auth handlers need from the account service
type AccountService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenRequest represents the refresh token request body
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *models.User `json:"user"`
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		User:    user,
	})
}

// Login handles user authentication. An unknown username is a 400, a wrong
// password a 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, statusOverrides{service.KindNotFound: http.StatusBadRequest})
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

// Logout revokes the caller's session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_, sessionID, ok := claimsOrUnauthorized(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Logout(r.Context(), sessionID); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAuthResponse(res *service.LoginResult) AuthResponse {
	return AuthResponse{
		Token:        res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresAt:    res.Tokens.AccessExpiresAt,
		User:         res.User,
	}
}
