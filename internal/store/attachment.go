package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskhub/apiserver/types"
)

// AttachmentRepository handles persistence for task attachment metadata.
// The file contents live in object storage under ObjectKey.
type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

const attachmentColumns = `id, task_id, uploader_id, filename, object_key, content_type, size, sha256, created_at`

func scanAttachment(row rowScanner) (types.Attachment, error) {
	var a types.Attachment
	err := row.Scan(
		&a.ID,
		&a.TaskID,
		&a.UploaderID,
		&a.Filename,
		&a.ObjectKey,
		&a.ContentType,
		&a.Size,
		&a.SHA256,
		&a.CreatedAt,
	)
	return a, err
}

func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID int64) ([]types.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM task_attachments WHERE task_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]types.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *AttachmentRepository) Get(ctx context.Context, id int64) (types.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM task_attachments WHERE id = $1`
	a, err := scanAttachment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attachment{}, ErrNotFound
		}
		return types.Attachment{}, err
	}
	return a, nil
}

func (r *AttachmentRepository) Create(ctx context.Context, a types.Attachment) (types.Attachment, error) {
	a.CreatedAt = time.Now()

	const query = `
		INSERT INTO task_attachments (task_id, uploader_id, filename, object_key, content_type, size, sha256, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		a.TaskID,
		a.UploaderID,
		a.Filename,
		a.ObjectKey,
		a.ContentType,
		a.Size,
		a.SHA256,
		a.CreatedAt,
	).Scan(&a.ID); err != nil {
		return types.Attachment{}, err
	}
	return a, nil
}
