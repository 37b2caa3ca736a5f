package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/apiserver/internal/services"
	"github.com/taskhub/apiserver/types"
)

// CommentHandler provides HTTP handlers for task comments.
type CommentHandler struct {
	comments *services.CommentService
	log      *slog.Logger
}

func NewCommentHandler(comments *services.CommentService, log *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, log: log}
}

// TaskCommentRoutes mounts the comment routes nested under /tasks/{taskID}.
func TaskCommentRoutes(comments *services.CommentService, log *slog.Logger) func(chi.Router) {
	handler := NewCommentHandler(comments, log)
	return func(r chi.Router) {
		r.Get("/comments", handler.ListTaskComments)
		r.Post("/comments", handler.CreateComment)
	}
}

// CommentRouter registers the top-level /comments routes.
func CommentRouter(r chi.Router, comments *services.CommentService, log *slog.Logger) {
	handler := NewCommentHandler(comments, log)
	r.With(RequireRole(types.RoleAdmin)).Delete("/{commentID}", handler.DeleteComment)
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

func (h *CommentHandler) ListTaskComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.comments.ListByTask(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to list comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) ListUserComments(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.comments.ListByAuthor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "user not found", "failed to list comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.comments.Create(r.Context(), taskID, req.Content)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to create comment")
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "commentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.comments.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "comment not found", "failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
