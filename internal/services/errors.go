package services

import "errors"

var (
	// ErrValidation wraps input that fails domain rules.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailTaken = errors.New("email already registered")
	ErrTitleTaken = errors.New("task title already exists")

	// ErrAssigneeNotFound indicates the assignee email matches no user.
	ErrAssigneeNotFound = errors.New("assignee not found")

	ErrAttachmentTooLarge = errors.New("attachment too large")

	// ErrStorageDisabled is returned by attachment operations when no object
	// storage backend is configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)
