package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/storage"
	"github.com/taskhub/apiserver/internal/store"
	"github.com/taskhub/apiserver/types"
)

const (
	// DefaultMaxAttachmentBytes caps a single upload.
	DefaultMaxAttachmentBytes = 25 << 20
	maxFilenameLength         = 128
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AttachmentRepository defines persistence operations for attachment metadata.
type AttachmentRepository interface {
	ListByTask(ctx context.Context, taskID int64) ([]types.Attachment, error)
	Get(ctx context.Context, id int64) (types.Attachment, error)
	Create(ctx context.Context, attachment types.Attachment) (types.Attachment, error)
}

// ObjectStore holds attachment contents.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// AttachmentService stores files attached to tasks.
type AttachmentService struct {
	attachments AttachmentRepository
	tasks       TaskGetter
	objects     ObjectStore
	maxBytes    int64
	log         *slog.Logger
}

// NewAttachmentService returns an AttachmentService. A nil objects store
// disables uploads and downloads with ErrStorageDisabled.
func NewAttachmentService(attachments AttachmentRepository, tasks TaskGetter, objects ObjectStore, maxBytes int64, log *slog.Logger) *AttachmentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	return &AttachmentService{
		attachments: attachments,
		tasks:       tasks,
		objects:     objects,
		maxBytes:    maxBytes,
		log:         log,
	}
}

// MaxBytes reports the upload size limit.
func (s *AttachmentService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores r as an attachment of task taskID. The author, the
// assignee and admins may upload.
func (s *AttachmentService) Upload(ctx context.Context, taskID int64, filename, contentType string, r io.Reader) (types.Attachment, error) {
	actor := auth.PrincipalFromContext(ctx)
	if actor == nil {
		return types.Attachment{}, auth.ErrUnauthenticated
	}
	if s.objects == nil {
		return types.Attachment{}, ErrStorageDisabled
	}

	name, err := sanitizeFilename(filename)
	if err != nil {
		return types.Attachment{}, err
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return types.Attachment{}, err
	}
	if !task.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return types.Attachment{}, auth.ErrForbidden
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return types.Attachment{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return types.Attachment{}, ErrAttachmentTooLarge
	}
	if len(data) == 0 {
		return types.Attachment{}, fmt.Errorf("%w: empty file", ErrValidation)
	}

	sum := sha256.Sum256(data)
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key := fmt.Sprintf("tasks/%d/%s-%s", taskID, uuid.NewString(), name)
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Attachment{}, fmt.Errorf("store object: %w", err)
	}

	attachment, err := s.attachments.Create(ctx, types.Attachment{
		TaskID:      taskID,
		UploaderID:  actor.ID,
		Filename:    name,
		ObjectKey:   key,
		ContentType: contentType,
		Size:        int64(len(data)),
		SHA256:      hex.EncodeToString(sum[:]),
	})
	if err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphaned attachment object", "key", key, "error", delErr)
		}
		return types.Attachment{}, err
	}
	s.log.Info("attachment uploaded",
		"task_id", taskID,
		"attachment_id", attachment.ID,
		"size", attachment.Size)
	return attachment, nil
}

func (s *AttachmentService) List(ctx context.Context, taskID int64) ([]types.Attachment, error) {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTask(ctx, taskID)
}

// Open returns the metadata and contents of attachment id of task taskID.
// The caller closes the reader.
func (s *AttachmentService) Open(ctx context.Context, taskID, id int64) (types.Attachment, io.ReadCloser, error) {
	if s.objects == nil {
		return types.Attachment{}, nil, ErrStorageDisabled
	}
	attachment, err := s.attachments.Get(ctx, id)
	if err != nil {
		return types.Attachment{}, nil, err
	}
	if attachment.TaskID != taskID {
		return types.Attachment{}, nil, store.ErrNotFound
	}
	body, err := s.objects.Get(ctx, attachment.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("attachment object missing", "attachment_id", id, "key", attachment.ObjectKey)
			return types.Attachment{}, nil, store.ErrNotFound
		}
		return types.Attachment{}, nil, fmt.Errorf("open object: %w", err)
	}
	return attachment, body, nil
}

// sanitizeFilename keeps the base name of filename and replaces anything
// outside [A-Za-z0-9._-] with '_'.
func sanitizeFilename(filename string) (string, error) {
	name := strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/")
	name = path.Base(path.Clean("/" + name))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "", fmt.Errorf("%w: invalid filename", ErrValidation)
	}
	if len(name) > maxFilenameLength {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name, nil
}
