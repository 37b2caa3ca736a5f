package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taskhub/apiserver/internal/services"
)

const (
	formFieldFile      = "file"
	maxMultipartMemory = 8 << 20
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 1 << 20
)

// AttachmentHandler provides upload and download of task attachments.
type AttachmentHandler struct {
	attachments *services.AttachmentService
	log         *slog.Logger
}

func NewAttachmentHandler(attachments *services.AttachmentService, log *slog.Logger) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments, log: log}
}

// TaskAttachmentRoutes mounts the attachment routes nested under
// /tasks/{taskID}.
func TaskAttachmentRoutes(attachments *services.AttachmentService, log *slog.Logger) func(chi.Router) {
	handler := NewAttachmentHandler(attachments, log)
	return func(r chi.Router) {
		r.Get("/attachments", handler.ListAttachments)
		r.Post("/attachments", handler.UploadAttachment)
		r.Get("/attachments/{attachmentID}", handler.DownloadAttachment)
	}
}

func (h *AttachmentHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.attachments.List(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to list attachments")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AttachmentHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.attachments.MaxBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, services.ErrAttachmentTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File[formFieldFile]
	if len(files) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one file is required")
		return
	}
	header := files[0]
	file, err := header.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(r.Context(), taskID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(w, h.log, err, "task not found", "failed to upload attachment")
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

func (h *AttachmentHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseID(r, "taskID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := parseID(r, "attachmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachment, body, err := h.attachments.Open(r.Context(), taskID, id)
	if err != nil {
		writeServiceError(w, h.log, err, "attachment not found", "failed to open attachment")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Filename}))
	w.Header().Set("ETag", fmt.Sprintf("%q", attachment.SHA256))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("attachment download interrupted", "attachment_id", id, "error", err)
	}
}
