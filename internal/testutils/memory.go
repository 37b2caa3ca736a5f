// Package testutils provides in-memory repositories and fixtures shared by
// package tests. The repositories honour the same error contract as the
// Postgres repositories in internal/store.
package testutils

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/taskhub/apiserver/internal/store"
	"github.com/taskhub/apiserver/types"
)

// UserRepository is an in-memory users table. Setting Err makes every call
// fail with it, which simulates a database outage.
type UserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]types.User
	Err    error
	// Lookups counts GetByID and GetByEmail calls.
	Lookups int
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]types.User)}
}

func cloneUser(u types.User) types.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	if r.Err != nil {
		return types.User{}, r.Err
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lookups++
	if r.Err != nil {
		return types.User{}, r.Err
	}
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return cloneUser(user), nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) List(_ context.Context) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	users := lo.Map(lo.Values(r.users), func(u types.User, _ int) types.User { return cloneUser(u) })
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, store.ErrConflict
		}
	}
	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(user)
	return user, nil
}

func (r *UserRepository) Update(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	current, ok := r.users[user.ID]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	for id, existing := range r.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return types.User{}, store.ErrConflict
		}
	}
	current.Email = user.Email
	current.Name = user.Name
	current.UpdatedAt = time.Now()
	r.users[user.ID] = current
	return cloneUser(current), nil
}

func (r *UserRepository) UpdateRoles(_ context.Context, id int64, roles []types.Role) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return types.User{}, r.Err
	}
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Roles = slices.Clone(roles)
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return cloneUser(user), nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// TaskRepository is an in-memory tasks table.
type TaskRepository struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]types.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[int64]types.Task)}
}

func matchesFilter(task types.Task, filter types.TaskFilter) bool {
	if filter.AuthorID != nil && task.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.AssigneeID != nil && (task.AssigneeID == nil || *task.AssigneeID != *filter.AssigneeID) {
		return false
	}
	if filter.ParticipantID != nil && !task.IsParticipant(*filter.ParticipantID) {
		return false
	}
	return true
}

func (r *TaskRepository) List(_ context.Context, filter types.TaskFilter, offset, limit int) ([]types.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := lo.Filter(lo.Values(r.tasks), func(t types.Task, _ int) bool { return matchesFilter(t, filter) })
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if offset >= total {
		return []types.Task{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (r *TaskRepository) Get(_ context.Context, id int64) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *TaskRepository) Create(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tasks {
		if existing.Title == task.Title {
			return types.Task{}, store.ErrConflict
		}
	}
	r.nextID++
	now := time.Now()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now
	r.tasks[task.ID] = task
	return task, nil
}

func (r *TaskRepository) Update(_ context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return types.Task{}, store.ErrNotFound
	}
	for id, existing := range r.tasks {
		if id != task.ID && existing.Title == task.Title {
			return types.Task{}, store.ErrConflict
		}
	}
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = task
	return task, nil
}

func (r *TaskRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

// CommentRepository is an in-memory comments table.
type CommentRepository struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]types.Comment
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[int64]types.Comment)}
}

func (r *CommentRepository) filter(keep func(types.Comment) bool) []types.Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := lo.Filter(lo.Values(r.comments), func(c types.Comment, _ int) bool { return keep(c) })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *CommentRepository) ListByTask(_ context.Context, taskID int64) ([]types.Comment, error) {
	return r.filter(func(c types.Comment) bool { return c.TaskID == taskID }), nil
}

func (r *CommentRepository) ListByAuthor(_ context.Context, authorID int64) ([]types.Comment, error) {
	return r.filter(func(c types.Comment) bool { return c.AuthorID == authorID }), nil
}

func (r *CommentRepository) Get(_ context.Context, id int64) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	return comment, nil
}

func (r *CommentRepository) Create(_ context.Context, comment types.Comment) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = comment
	return comment, nil
}

func (r *CommentRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

// AttachmentRepository is an in-memory task_attachments table.
type AttachmentRepository struct {
	mu          sync.Mutex
	nextID      int64
	attachments map[int64]types.Attachment
}

func NewAttachmentRepository() *AttachmentRepository {
	return &AttachmentRepository{attachments: make(map[int64]types.Attachment)}
}

func (r *AttachmentRepository) ListByTask(_ context.Context, taskID int64) ([]types.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := lo.Filter(lo.Values(r.attachments), func(a types.Attachment, _ int) bool { return a.TaskID == taskID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AttachmentRepository) Get(_ context.Context, id int64) (types.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attachments[id]
	if !ok {
		return types.Attachment{}, store.ErrNotFound
	}
	return a, nil
}

func (r *AttachmentRepository) Create(_ context.Context, a types.Attachment) (types.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now()
	r.attachments[a.ID] = a
	return a, nil
}
