package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/factfeed/internal/common"
	"github.com/dmitrijs2005/factfeed/internal/logging"
	"github.com/dmitrijs2005/factfeed/internal/server/auth"
	"github.com/dmitrijs2005/factfeed/internal/server/metrics"
	"github.com/dmitrijs2005/factfeed/internal/server/middleware"
	"github.com/dmitrijs2005/factfeed/internal/server/models"
	"github.com/dmitrijs2005/factfeed/internal/server/services"
)

// Grant types of POST /auth/v1/token.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
	grantSignup       = "signup"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID               string     `json:"id"`
	Aud              string     `json:"aud"`
	Role             string     `json:"role"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:               u.ID,
		Aud:              auth.RoleAuthenticated,
		Role:             auth.RoleAuthenticated,
		Email:            u.Email,
		EmailConfirmedAt: u.ConfirmedAt,
		CreatedAt:        u.CreatedAt,
	}
}

func toTokenResponse(s *services.Session) tokenResponse {
	return tokenResponse{
		AccessToken:  s.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt.Unix(),
		RefreshToken: s.RefreshToken,
		User:         toUserResponse(s.User),
	}
}

// AuthHandler serves /auth/v1.
type AuthHandler struct {
	users UserService
	log   logging.Logger
	rec   metrics.Recorder
}

func NewAuthHandler(users UserService, log logging.Logger, rec metrics.Recorder) *AuthHandler {
	return &AuthHandler{users: users, log: log.With("module", "auth_handler"), rec: rec}
}

// Signup handles POST /auth/v1/signup. A signed-in account gets a token
// response; an account waiting for confirmation gets an empty object.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	_, session, err := h.users.Signup(r.Context(), c.Email, c.Password)
	h.rec.RecordAuth(grantSignup, err == nil)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			middleware.WriteError(w, http.StatusUnprocessableEntity, "weak_password", err.Error())
		case errors.Is(err, common.ErrorValidation):
			middleware.WriteError(w, http.StatusUnprocessableEntity, "validation_failed", "Unable to validate email address: invalid format")
		case errors.Is(err, common.ErrorAlreadyExists):
			middleware.WriteError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		default:
			h.log.Error(r.Context(), "signup failed", "error", err)
			middleware.WriteInternalServerError(w)
		}
		return
	}

	if session == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(session))
}

// Token handles POST /auth/v1/token?grant_type=password|refresh_token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	grant := r.URL.Query().Get("grant_type")
	switch grant {
	case GrantPassword:
		h.passwordGrant(w, r)
	case GrantRefreshToken:
		h.refreshGrant(w, r)
	default:
		middleware.WriteError(w, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant type")
	}
}

func (h *AuthHandler) passwordGrant(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}
	if c.Email == "" || c.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "validation_failed", "Email and password are required")
		return
	}

	session, err := h.users.Login(r.Context(), c.Email, c.Password)
	h.rec.RecordAuth(GrantPassword, err == nil)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			middleware.WriteError(w, http.StatusBadRequest, "invalid_grant", "Invalid login credentials")
		case errors.Is(err, common.ErrEmailNotConfirmed):
			middleware.WriteError(w, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
		default:
			h.log.Error(r.Context(), "login failed", "error", err)
			middleware.WriteInternalServerError(w)
		}
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(session))
}

func (h *AuthHandler) refreshGrant(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_grant", "Refresh token is required")
		return
	}

	session, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	h.rec.RecordAuth(GrantRefreshToken, err == nil)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			middleware.WriteError(w, http.StatusBadRequest, "invalid_grant", "Invalid Refresh Token: Refresh Token Not Found")
			return
		}
		h.log.Error(r.Context(), "token refresh failed", "error", err)
		middleware.WriteInternalServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, toTokenResponse(session))
}

// Logout handles POST /auth/v1/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "no_authorization", "This endpoint requires a valid Bearer token")
		return
	}
	if err := h.users.Logout(r.Context(), userID); err != nil {
		h.log.Error(r.Context(), "logout failed", "error", err)
		middleware.WriteInternalServerError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// User handles GET /auth/v1/user.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "no_authorization", "This endpoint requires a valid Bearer token")
		return
	}
	u, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		h.log.Error(r.Context(), "user lookup failed", "error", err)
		middleware.WriteInternalServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
