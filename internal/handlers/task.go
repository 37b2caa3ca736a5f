package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/apiserver/internal/services"
	"github.com/taskhub/apiserver/types"
)

// TaskHandler provides HTTP handlers for tasks.
type TaskHandler struct {
	tasks *services.TaskService
	log   *slog.Logger
}

func NewTaskHandler(tasks *services.TaskService, log *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

// TaskRouter registers task routes on the given router. Every route needs
// an authenticated principal; finer checks happen in the service.
func TaskRouter(r chi.Router, tasks *services.TaskService, log *slog.Logger, subroutes ...func(chi.Router)) {
	handler := NewTaskHandler(tasks, log)

	r.Use(RequireAuth)
	r.Get("/", handler.ListTasks)
	r.Get("/mine", handler.ListMyTasks)
	r.With(RequireRole(types.RoleAdmin)).Post("/", handler.CreateTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", handler.GetTask)
		r.Patch("/status", handler.UpdateStatus)
		r.Put("/assignee", handler.Assign)
		r.With(RequireRole(types.RoleAdmin)).Delete("/", handler.DeleteTask)
		for _, mount := range subroutes {
			mount(r)
		}
	})
}

type CreateTaskRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Description   string `json:"description" validate:"max=10000"`
	Priority      string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH low medium high"`
	Status        string `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE todo in_progress done"`
	AssigneeEmail string `json:"assignee_email" validate:"omitempty,email"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AssignRequest struct {
	// AssigneeEmail empty unassigns the task.
	AssigneeEmail string `json:"assignee_email" validate:"omitempty,email"`
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	authorID, err := parseOptionalID(r, "author_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	assigneeID, err := parseOptionalID(r, "assignee_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.tasks.List(r.Context(), types.TaskFilter{
		AuthorID:   authorID,
		AssigneeID: assigneeID,
	}, offset, limit)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Task]{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *TaskHandler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.tasks.ListMine(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Task]{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to fetch task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Create(r.Context(), services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        req.Status,
		AssigneeEmail: req.AssigneeEmail,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req AssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Assign(r.Context(), id, req.AssigneeEmail)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to assign task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
