package types

import "time"

// Comment is a note left by a user on a task.
type Comment struct {
	// ID is the unique identifier of the comment.
	ID int64 `json:"id" db:"id"`

	// TaskID identifies the task the comment belongs to.
	TaskID int64 `json:"task_id" db:"task_id"`

	// AuthorID identifies the user who wrote the comment.
	AuthorID int64 `json:"author_id" db:"author_id"`

	// Content is the comment body.
	Content string `json:"content" db:"content"`

	// CreatedAt is the timestamp when the comment was posted.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
