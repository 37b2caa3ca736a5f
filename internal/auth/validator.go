package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskhub/apiserver/internal/store"
	"github.com/taskhub/apiserver/types"
)

// PrincipalStore is the read side of the credential store used to resolve
// token subjects into principals.
type PrincipalStore interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
}

// Validator verifies presented tokens and turns them into principals.
type Validator struct {
	codec              *Codec
	store              PrincipalStore
	trustEmbeddedRoles bool
	settings
}

// NewValidator returns a Validator. With trustEmbeddedRoles set, Resolve
// builds the principal from the access token's roles claim without a store
// lookup; otherwise every request re-reads the principal from principals.
func NewValidator(codec *Codec, principals PrincipalStore, trustEmbeddedRoles bool, opts ...Option) (*Validator, error) {
	if codec == nil {
		return nil, fmt.Errorf("auth: codec is required")
	}
	if principals == nil {
		return nil, fmt.Errorf("auth: principal store is required")
	}
	return &Validator{
		codec:              codec,
		store:              principals,
		trustEmbeddedRoles: trustEmbeddedRoles,
		settings:           newSettings(opts),
	}, nil
}

// IsValid reports whether token is well-signed and not yet expired.
// Malformed and badly signed tokens return an error; an expired token
// returns false with a nil error. A token is invalid at its expiry instant.
func (v *Validator) IsValid(token string) (bool, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return false, err
	}
	return v.now().Before(claims.ExpiresAt), nil
}

// ExtractEmail returns the subject of token without checking expiry.
func (v *Validator) ExtractEmail(token string) (string, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractID returns the id claim of token without checking expiry.
func (v *Validator) ExtractID(token string) (int64, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// Authenticate resolves the subject of token to a principal carrying its
// current roles. It does not check expiry; callers check IsValid first.
func (v *Validator) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return Principal{}, err
	}
	return v.lookup(ctx, claims)
}

// Resolve is the per-request path: it rejects expired tokens with
// ErrExpired and refresh tokens with ErrInvalidToken, then either trusts
// the roles embedded in the access token or resolves the principal
// through the store.
func (v *Validator) Resolve(ctx context.Context, token string) (Principal, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return Principal{}, err
	}
	if !v.now().Before(claims.ExpiresAt) {
		return Principal{}, ErrExpired
	}

	if claims.Kind() != TokenAccess {
		v.log.Debug("non-access token presented as bearer", "user_id", claims.UserID)
		return Principal{}, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}

	if v.trustEmbeddedRoles && len(claims.Roles) > 0 {
		roles, err := types.ParseRoles(claims.Roles)
		if err != nil {
			return Principal{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Principal{
			ID:    claims.UserID,
			Email: claims.Subject,
			Roles: roles,
		}, nil
	}

	return v.lookup(ctx, claims)
}

func (v *Validator) lookup(ctx context.Context, claims Claims) (Principal, error) {
	user, err := v.store.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.log.Debug("token subject not found", "user_id", claims.UserID)
			return Principal{}, ErrUserNotFound
		}
		return Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	// The email was re-used by another account after the token was issued.
	if user.ID != claims.UserID {
		v.log.Debug("token subject belongs to another user", "user_id", claims.UserID)
		return Principal{}, ErrUserNotFound
	}
	return PrincipalFromUser(user), nil
}
