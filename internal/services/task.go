package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/store"
	"github.com/taskhub/apiserver/types"
)

const (
	defaultTaskLimit = 10
	maxTaskLimit     = 100
	maxTitleLength   = 200
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	List(ctx context.Context, filter types.TaskFilter, offset, limit int) ([]types.Task, int, error)
	Get(ctx context.Context, id int64) (types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, id int64) error
}

// UserLookup resolves users referenced by tasks.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
}

// CreateTaskInput is the data needed to create a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
	Status      string
	// AssigneeEmail is optional; empty leaves the task unassigned.
	AssigneeEmail string
}

// TaskService encapsulates task use-cases.
type TaskService struct {
	tasks  TaskRepository
	users  UserLookup
	events EventPublisher
	log    *slog.Logger
}

func NewTaskService(tasks TaskRepository, users UserLookup, events EventPublisher, log *slog.Logger) *TaskService {
	if events == nil {
		events = nopPublisher{}
	}
	return &TaskService{
		tasks:  tasks,
		users:  users,
		events: events,
		log:    log,
	}
}

func clampLimit(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultTaskLimit
	}
	if limit > maxTaskLimit {
		limit = maxTaskLimit
	}
	return offset, limit
}

func (s *TaskService) List(ctx context.Context, filter types.TaskFilter, offset, limit int) ([]types.Task, int, error) {
	offset, limit = clampLimit(offset, limit)
	return s.tasks.List(ctx, filter, offset, limit)
}

// ListMine lists the tasks the caller authored or is assigned to.
func (s *TaskService) ListMine(ctx context.Context, offset, limit int) ([]types.Task, int, error) {
	actor := auth.PrincipalFromContext(ctx)
	if actor == nil {
		return nil, 0, auth.ErrUnauthenticated
	}
	id := actor.ID
	return s.List(ctx, types.TaskFilter{ParticipantID: &id}, offset, limit)
}

func (s *TaskService) Get(ctx context.Context, id int64) (types.Task, error) {
	return s.tasks.Get(ctx, id)
}

// Create stores a new task authored by the caller. Admin only.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (types.Task, error) {
	actor := auth.PrincipalFromContext(ctx)
	if err := auth.RequireRole(actor, types.RoleAdmin); err != nil {
		return types.Task{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return types.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(title) > maxTitleLength {
		return types.Task{}, fmt.Errorf("%w: title must be at most %d characters", ErrValidation, maxTitleLength)
	}
	priority, err := types.ParsePriority(in.Priority)
	if err != nil {
		return types.Task{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	status, err := types.ParseStatus(in.Status)
	if err != nil {
		return types.Task{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	task := types.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      status,
		AuthorID:    actor.ID,
	}
	if email := strings.TrimSpace(in.AssigneeEmail); email != "" {
		assignee, err := s.resolveAssignee(ctx, email)
		if err != nil {
			return types.Task{}, err
		}
		task.AssigneeID = &assignee.ID
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Task{}, ErrTitleTaken
		}
		return types.Task{}, err
	}
	s.log.Info("task created", "task_id", created.ID, "actor_id", actor.ID)
	publish(ctx, s.events, s.log, EventTaskCreated, TaskEvent{TaskID: created.ID, ActorID: actor.ID, Task: created})
	return created, nil
}

// UpdateStatus moves a task through its workflow. The author, the assignee
// and admins may do so.
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, rawStatus string) (types.Task, error) {
	actor := auth.PrincipalFromContext(ctx)
	if actor == nil {
		return types.Task{}, auth.ErrUnauthenticated
	}
	if strings.TrimSpace(rawStatus) == "" {
		return types.Task{}, fmt.Errorf("%w: status is required", ErrValidation)
	}
	status, err := types.ParseStatus(rawStatus)
	if err != nil {
		return types.Task{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return types.Task{}, err
	}
	if !task.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return types.Task{}, auth.ErrForbidden
	}
	if task.Status == status {
		return task, nil
	}

	previous := task.Status
	task.Status = status
	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		return types.Task{}, err
	}
	publish(ctx, s.events, s.log, EventTaskStatusChanged, TaskEvent{
		TaskID:         updated.ID,
		ActorID:        actor.ID,
		Task:           updated,
		PreviousStatus: previous,
	})
	return updated, nil
}

// Assign hands a task to the user with assigneeEmail, or unassigns it when
// the email is empty. The author and admins may do so.
func (s *TaskService) Assign(ctx context.Context, id int64, assigneeEmail string) (types.Task, error) {
	actor := auth.PrincipalFromContext(ctx)
	if actor == nil {
		return types.Task{}, auth.ErrUnauthenticated
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return types.Task{}, err
	}
	if task.AuthorID != actor.ID && !actor.IsAdmin() {
		return types.Task{}, auth.ErrForbidden
	}

	task.AssigneeID = nil
	if email := strings.TrimSpace(assigneeEmail); email != "" {
		assignee, err := s.resolveAssignee(ctx, email)
		if err != nil {
			return types.Task{}, err
		}
		task.AssigneeID = &assignee.ID
	}

	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		return types.Task{}, err
	}
	publish(ctx, s.events, s.log, EventTaskAssigned, TaskEvent{TaskID: updated.ID, ActorID: actor.ID, Task: updated})
	return updated, nil
}

// Delete removes a task with its comments and attachment records. Admin only.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	actor := auth.PrincipalFromContext(ctx)
	if err := auth.RequireRole(actor, types.RoleAdmin); err != nil {
		return err
	}
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("task deleted", "task_id", id, "actor_id", actor.ID)
	publish(ctx, s.events, s.log, EventTaskDeleted, TaskEvent{TaskID: id, ActorID: actor.ID, Task: task})
	return nil
}

func (s *TaskService) resolveAssignee(ctx context.Context, email string) (types.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrAssigneeNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
