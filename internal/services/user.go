package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/store"
	"github.com/taskhub/apiserver/types"
)

const maxNameLength = 100

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	UpdateRoles(ctx context.Context, id int64, roles []types.Role) (types.User, error)
	Delete(ctx context.Context, id int64) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer issues a token pair for an authenticated user.
type TokenIssuer interface {
	IssuePair(user types.User) (auth.TokenPair, error)
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// UserService encapsulates registration, login and user administration.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
	log    *slog.Logger
	// decoy is verified against when the login email is unknown so both
	// failure paths cost one bcrypt comparison.
	decoy string
}

func NewUserService(repo UserRepository, hasher PasswordHasher, issuer TokenIssuer, log *slog.Logger) (*UserService, error) {
	decoy, err := hasher.Hash("decoy-password-for-unknown-accounts")
	if err != nil {
		return nil, fmt.Errorf("hash login decoy: %w", err)
	}
	return &UserService{
		repo:   repo,
		hasher: hasher,
		issuer: issuer,
		log:    log,
		decoy:  decoy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account holding RoleUser and returns its first token
// pair. Roles cannot be chosen at registration.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (auth.TokenPair, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return auth.TokenPair{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        email,
		Name:         name,
		Roles:        []types.Role{types.RoleUser},
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return auth.TokenPair{}, ErrEmailTaken
		}
		return auth.TokenPair{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", user.ID)

	return s.issuer.IssuePair(user)
}

// Login verifies credentials and returns a fresh token pair. Unknown emails
// and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify(password, s.decoy)
			return auth.TokenPair{}, ErrInvalidCredentials
		}
		return auth.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Verify(password, user.Credentials().PasswordHash) {
		s.log.Debug("login rejected", "user_id", user.ID)
		return auth.TokenPair{}, ErrInvalidCredentials
	}

	return s.issuer.IssuePair(user)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	if err := auth.RequireRole(auth.PrincipalFromContext(ctx), types.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// UpdateRoles replaces the roles of user id. Admin only. The change reaches
// the user's access tokens on their next refresh.
func (s *UserService) UpdateRoles(ctx context.Context, id int64, names []string) (types.User, error) {
	actor := auth.PrincipalFromContext(ctx)
	if err := auth.RequireRole(actor, types.RoleAdmin); err != nil {
		return types.User{}, err
	}

	roles, err := types.ParseRoles(names)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: %v (known roles: %s)", ErrValidation, err,
			strings.Join(types.RoleNames(types.KnownRoles()), ", "))
	}
	if len(roles) == 0 {
		return types.User{}, fmt.Errorf("%w: at least one role is required", ErrValidation)
	}

	user, err := s.repo.UpdateRoles(ctx, id, roles)
	if err != nil {
		return types.User{}, err
	}
	s.log.Info("roles updated",
		"user_id", id,
		"roles", types.RoleNames(roles),
		"actor_id", actor.ID)
	return user, nil
}

// UpdateName changes the display name of user id. Users may rename
// themselves; admins may rename anyone.
func (s *UserService) UpdateName(ctx context.Context, id int64, name string) (types.User, error) {
	actor := auth.PrincipalFromContext(ctx)
	if actor == nil {
		return types.User{}, auth.ErrUnauthenticated
	}
	if actor.ID != id && !actor.IsAdmin() {
		return types.User{}, auth.ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return types.User{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return types.User{}, fmt.Errorf("%w: name must be at most %d characters", ErrValidation, maxNameLength)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	user.Name = name
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}
	s.log.Info("user renamed", "user_id", id, "actor_id", actor.ID)
	return updated, nil
}

// Delete removes user id. Admin only.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	actor := auth.PrincipalFromContext(ctx)
	if err := auth.RequireRole(actor, types.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}
