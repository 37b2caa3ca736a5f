package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskhub/apiserver/internal/store"
)

// Refresher exchanges a refresh token for a new token pair.
//
// The presented refresh token is not revoked: it stays usable until its
// own expiry because the system keeps no server-side token state.
type Refresher struct {
	validator *Validator
	issuer    *Issuer
	store     PrincipalStore
	settings
}

// NewRefresher wires the refresh flow.
func NewRefresher(validator *Validator, issuer *Issuer, principals PrincipalStore, opts ...Option) (*Refresher, error) {
	if validator == nil || issuer == nil || principals == nil {
		return nil, fmt.Errorf("auth: refresher dependencies are required")
	}
	return &Refresher{
		validator: validator,
		issuer:    issuer,
		store:     principals,
		settings:  newSettings(opts),
	}, nil
}

// Refresh validates refreshToken, rejects access tokens, checks the token
// was issued to claimedID and issues a fresh pair whose access token
// carries the principal's current roles.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string, claimedID int64) (TokenPair, error) {
	valid, err := r.validator.IsValid(refreshToken)
	if err != nil {
		r.log.Debug("refresh rejected", "reason", err)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !valid {
		r.log.Debug("refresh rejected", "reason", ErrExpired)
		return TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpired)
	}

	claims, err := r.validator.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Kind() != TokenRefresh {
		r.log.Debug("refresh rejected", "reason", "not a refresh token", "user_id", claims.UserID)
		return TokenPair{}, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	id := claims.UserID
	if id != claimedID {
		r.log.Warn("refresh token presented for another principal",
			"token_user_id", id,
			"claimed_user_id", claimedID)
		return TokenPair{}, ErrTokenPrincipalMismatch
	}

	user, err := r.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("load principal: %w", err)
	}

	pair, err := r.issuer.IssuePair(user)
	if err != nil {
		return TokenPair{}, err
	}
	r.log.Info("tokens refreshed", "user_id", id)
	return pair, nil
}
