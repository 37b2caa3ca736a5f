package types

import (
	"fmt"
	"strings"
	"time"
)

// Task represents a unit of work tracked by the system.
// It carries descriptive fields, workflow state, and the people involved.
type Task struct {
	// ID is the unique identifier of the task.
	ID int64 `json:"id" db:"id"`

	// Title is the short, unique name of the task.
	Title string `json:"title" db:"title"`

	// Description is the full description of the work.
	Description string `json:"description" db:"description"`

	// Priority indicates how urgent the task is.
	Priority Priority `json:"priority" db:"priority"`

	// Status is the current workflow state of the task.
	Status Status `json:"status" db:"status"`

	// AuthorID identifies the user who created the task.
	AuthorID int64 `json:"author_id" db:"author_id"`

	// AssigneeID identifies the user the task is assigned to.
	// Nil when the task is unassigned.
	AssigneeID *int64 `json:"assignee_id,omitempty" db:"assignee_id"`

	// CreatedAt is the timestamp when the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change to the task.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsParticipant reports whether userID authored or is assigned to the task.
func (t Task) IsParticipant(userID int64) bool {
	if t.AuthorID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AuthorID   *int64
	AssigneeID *int64
	// ParticipantID matches tasks authored by or assigned to the user.
	ParticipantID *int64
}

// Priority ranks how urgent a task is.
type Priority string

// Supported priorities.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority converts a case-insensitive name into a Priority.
// An empty string yields PriorityMedium.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// Status is the workflow state of a task.
type Status string

// Supported statuses.
const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus converts a case-insensitive name into a Status.
// An empty string yields StatusTodo.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case "":
		return StatusTodo, nil
	case StatusTodo, StatusInProgress, StatusDone:
		return s, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}
