package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/apiserver/internal/services"
	"github.com/taskhub/apiserver/types"
)

// UserHandler provides user administration endpoints.
type UserHandler struct {
	users *services.UserService
	log   *slog.Logger
}

func NewUserHandler(users *services.UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users *services.UserService, comments *services.CommentService, log *slog.Logger) {
	handler := NewUserHandler(users, log)
	commentHandler := NewCommentHandler(comments, log)
	admin := RequireRole(types.RoleAdmin)

	r.Use(RequireAuth)
	r.With(admin).Get("/", handler.ListUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Patch("/", handler.UpdateUser)
		r.Get("/comments", commentHandler.ListUserComments)
		r.With(admin).Put("/roles", handler.UpdateRoles)
		r.With(admin).Delete("/", handler.DeleteUser)
	})
}

type UpdateUserRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,required"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "user not found", "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "user not found", "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateName(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, h.log, err, "user not found", "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req UpdateRolesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateRoles(r.Context(), id, req.Roles)
	if err != nil {
		writeServiceError(w, h.log, err, "user not found", "failed to update roles")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "user not found", "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
