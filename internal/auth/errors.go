package auth

import "errors"

// Token and authorization errors. Callers match them with errors.Is.
var (
	// ErrMalformed indicates the token cannot be parsed into the expected
	// header.payload.signature structure or claim schema.
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature indicates the token parsed but its signature does
	// not verify with the configured key or uses a non-HMAC algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired indicates a well-formed, well-signed token whose expiry has
	// passed. IsValid reports this case as false rather than as an error.
	ErrExpired = errors.New("token expired")

	// ErrUserNotFound indicates the token is valid but its principal can no
	// longer be resolved.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken is returned by the refresh flow for any token-side
	// failure: bad signature, malformed or expired.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenPrincipalMismatch indicates a refresh token presented on
	// behalf of a different principal than the one it was issued to.
	ErrTokenPrincipalMismatch = errors.New("token principal mismatch")

	// ErrUnauthenticated indicates an operation that needs a principal was
	// invoked anonymously.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the principal lacks a required role.
	ErrForbidden = errors.New("forbidden")

	// ErrWeakSecret indicates the signing secret is too short for HMAC use.
	ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")
)

// IsTokenError reports whether err stems from the presented token or its
// principal rather than from an infrastructure failure.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenPrincipalMismatch)
}
