package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskhub/apiserver/types"
)

// CommentRepository handles persistence for comments.
type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, task_id, author_id, content, created_at`

func scanComment(row rowScanner) (types.Comment, error) {
	var comment types.Comment
	err := row.Scan(
		&comment.ID,
		&comment.TaskID,
		&comment.AuthorID,
		&comment.Content,
		&comment.CreatedAt,
	)
	return comment, err
}

func (r *CommentRepository) listWhere(ctx context.Context, where string, arg any) ([]types.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE ` + where + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]types.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID int64) ([]types.Comment, error) {
	return r.listWhere(ctx, "task_id = $1", taskID)
}

func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID int64) ([]types.Comment, error) {
	return r.listWhere(ctx, "author_id = $1", authorID)
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (types.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Comment{}, ErrNotFound
		}
		return types.Comment{}, err
	}
	return comment, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	comment.CreatedAt = time.Now()

	const query = `
		INSERT INTO comments (task_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		comment.TaskID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt,
	).Scan(&comment.ID); err != nil {
		return types.Comment{}, err
	}
	return comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM comments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
