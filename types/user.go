package types

import "time"

// User represents an account in the system.
// It contains identity, roles, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Email is the user's email address. It is unique and doubles as
	// the login name.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Roles is the set of authorization roles granted to the user.
	// A registered user always holds at least RoleUser.
	Roles []Role `json:"roles" db:"roles"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Credentials pairs a user with the stored password hash.
type Credentials struct {
	UserID       int64
	PasswordHash string
}

// Credentials returns the credential half of the user record.
func (u User) Credentials() Credentials {
	return Credentials{UserID: u.ID, PasswordHash: u.PasswordHash}
}
