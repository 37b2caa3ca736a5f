package services

import (
	"context"
	"log/slog"

	"github.com/taskhub/apiserver/types"
)

// Domain event names.
const (
	EventTaskCreated       = "task.created"
	EventTaskAssigned      = "task.assigned"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskDeleted       = "task.deleted"
	EventCommentCreated    = "comment.created"
)

// EventPublisher delivers domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// TaskEvent is the payload of every task.* event.
type TaskEvent struct {
	TaskID         int64        `json:"task_id"`
	ActorID        int64        `json:"actor_id"`
	Task           types.Task   `json:"task"`
	PreviousStatus types.Status `json:"previous_status,omitempty"`
}

// CommentEvent is the payload of comment.created.
type CommentEvent struct {
	TaskID  int64         `json:"task_id"`
	ActorID int64         `json:"actor_id"`
	Comment types.Comment `json:"comment"`
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

// publish delivers an event after the write it describes has committed.
// Delivery failures are logged and never fail the request.
func publish(ctx context.Context, events EventPublisher, log *slog.Logger, name string, payload any) {
	if err := events.Publish(ctx, name, payload); err != nil {
		log.Warn("publish event failed", "event", name, "error", err)
	}
}
