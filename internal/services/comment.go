package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/types"
)

const maxCommentLength = 4000

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	ListByTask(ctx context.Context, taskID int64) ([]types.Comment, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]types.Comment, error)
	Get(ctx context.Context, id int64) (types.Comment, error)
	Create(ctx context.Context, comment types.Comment) (types.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// TaskGetter loads a single task.
type TaskGetter interface {
	Get(ctx context.Context, id int64) (types.Task, error)
}

// CommentService encapsulates comment use-cases.
type CommentService struct {
	comments CommentRepository
	tasks    TaskGetter
	events   EventPublisher
	log      *slog.Logger
}

func NewCommentService(comments CommentRepository, tasks TaskGetter, events EventPublisher, log *slog.Logger) *CommentService {
	if events == nil {
		events = nopPublisher{}
	}
	return &CommentService{
		comments: comments,
		tasks:    tasks,
		events:   events,
		log:      log,
	}
}

func (s *CommentService) ListByTask(ctx context.Context, taskID int64) ([]types.Comment, error) {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

func (s *CommentService) ListByAuthor(ctx context.Context, authorID int64) ([]types.Comment, error) {
	return s.comments.ListByAuthor(ctx, authorID)
}

// Create adds a comment to a task. Only the task's author, its assignee and
// admins may comment.
func (s *CommentService) Create(ctx context.Context, taskID int64, content string) (types.Comment, error) {
	actor := auth.PrincipalFromContext(ctx)
	if actor == nil {
		return types.Comment{}, auth.ErrUnauthenticated
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return types.Comment{}, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return types.Comment{}, fmt.Errorf("%w: content must be at most %d characters", ErrValidation, maxCommentLength)
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return types.Comment{}, err
	}
	if !task.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return types.Comment{}, auth.ErrForbidden
	}

	comment, err := s.comments.Create(ctx, types.Comment{
		TaskID:   taskID,
		AuthorID: actor.ID,
		Content:  content,
	})
	if err != nil {
		return types.Comment{}, err
	}
	publish(ctx, s.events, s.log, EventCommentCreated, CommentEvent{TaskID: taskID, ActorID: actor.ID, Comment: comment})
	return comment, nil
}

// Delete removes a comment. Admin only.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	actor := auth.PrincipalFromContext(ctx)
	if err := auth.RequireRole(actor, types.RoleAdmin); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("comment deleted", "comment_id", id, "actor_id", actor.ID)
	return nil
}
