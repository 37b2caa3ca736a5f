package auth

import (
	"fmt"
	"time"

	"github.com/taskhub/apiserver/types"
)

// TokenPair is the result of login, registration and refresh.
type TokenPair struct {
	UserID       int64  `json:"id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer mints access and refresh tokens. It keeps no state beyond its
// configuration and never persists anything.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	settings
}

// NewIssuer returns an Issuer signing with codec. Access tokens live for
// accessTTL and refresh tokens for refreshTTL.
func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration, opts ...Option) (*Issuer, error) {
	if codec == nil {
		return nil, fmt.Errorf("auth: codec is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("auth: token lifetimes must be positive")
	}
	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		settings:   newSettings(opts),
	}, nil
}

// IssueAccessToken signs {sub: email, id, roles, typ: access} expiring after the access
// lifetime.
func (i *Issuer) IssueAccessToken(id int64, email string, roles []types.Role) (string, error) {
	now := i.now()
	token, err := i.codec.Encode(Claims{
		Subject:  email,
		UserID:   id,
		Roles:    types.RoleNames(roles),
		IssuedAt: now,
		Type:     TokenAccess,
	}, now.Add(i.accessTTL))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	i.log.Debug("access token issued", "user_id", id)
	return token, nil
}

// IssueRefreshToken signs {sub: email, id} expiring after the refresh
// lifetime. It carries no roles; a refresh re-reads them from the store.
func (i *Issuer) IssueRefreshToken(id int64, email string) (string, error) {
	now := i.now()
	token, err := i.codec.Encode(Claims{
		Subject:  email,
		UserID:   id,
		IssuedAt: now,
		Type:     TokenRefresh,
	}, now.Add(i.refreshTTL))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	i.log.Debug("refresh token issued", "user_id", id)
	return token, nil
}

// IssuePair issues an access and a refresh token for user.
func (i *Issuer) IssuePair(user types.User) (TokenPair, error) {
	access, err := i.IssueAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
