package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/services"
	"github.com/taskhub/apiserver/internal/store"
)

// TokenRefresher exchanges a refresh token for a new pair.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string, claimedID int64) (auth.TokenPair, error)
}

// AuthHandler provides registration, login and token refresh endpoints.
type AuthHandler struct {
	users     *services.UserService
	refresher TokenRefresher
	log       *slog.Logger
}

func NewAuthHandler(users *services.UserService, refresher TokenRefresher, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, refresher: refresher, log: log}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, refresher TokenRefresher, log *slog.Logger) {
	handler := NewAuthHandler(users, refresher, log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.With(RequireAuth).Get("/me", handler.Me)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	ID           int64  `json:"id" validate:"required,gt=0"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register creates a USER account and returns its first token pair.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "resource not found", "failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeServiceError(w, h.log, err, "resource not found", "failed to authenticate")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a new pair. Every token-side
// failure yields the same 401 so callers learn nothing about why.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.refresher.Refresh(r.Context(), req.RefreshToken, req.ID)
	if err != nil {
		if auth.IsTokenError(err) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		h.log.Error("refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, "authentication unavailable")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.log.Error("load current user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
