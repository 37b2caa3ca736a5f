package types

import "time"

// Attachment describes a file uploaded to a task and kept in object storage.
type Attachment struct {
	// ID is the unique identifier of the attachment.
	ID int64 `json:"id" db:"id"`

	// TaskID identifies the task the file is attached to.
	TaskID int64 `json:"task_id" db:"task_id"`

	// UploaderID identifies the user who uploaded the file.
	UploaderID int64 `json:"uploader_id" db:"uploader_id"`

	// Filename is the sanitized original file name.
	Filename string `json:"filename" db:"filename"`

	// ObjectKey is the key of the object in the configured bucket.
	ObjectKey string `json:"-" db:"object_key"`

	// ContentType is the MIME type reported at upload time.
	ContentType string `json:"content_type" db:"content_type"`

	// Size is the object size in bytes.
	Size int64 `json:"size" db:"size"`

	// SHA256 is the hex-encoded digest of the file contents.
	SHA256 string `json:"sha256" db:"sha256"`

	// CreatedAt is the timestamp of the upload.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
