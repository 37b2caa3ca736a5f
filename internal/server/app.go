package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/taskhub/apiserver/config"
	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/internal/services"
)

// Repositories groups the persistence layer the application runs on.
type Repositories struct {
	Users       services.UserRepository
	Tasks       services.TaskRepository
	Comments    services.CommentRepository
	Attachments services.AttachmentRepository
}

// App holds the wired services and token components behind the router.
type App struct {
	Users       *services.UserService
	Tasks       *services.TaskService
	Comments    *services.CommentService
	Attachments *services.AttachmentService
	Validator   *auth.Validator
	Refresher   *auth.Refresher
}

// NewApp wires the token stack and services. objects may be nil when
// object storage is disabled; events may be nil to drop domain events.
func NewApp(cfg config.AuthConfig, repos Repositories, objects services.ObjectStore, events services.EventPublisher, log *slog.Logger, opts ...auth.Option) (App, error) {
	if repos.Users == nil || repos.Tasks == nil || repos.Comments == nil || repos.Attachments == nil {
		return App{}, fmt.Errorf("server: all repositories are required")
	}

	codec, err := auth.NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		return App{}, err
	}

	opts = append([]auth.Option{auth.WithLogger(log.With("component", "auth"))}, opts...)
	issuer, err := auth.NewIssuer(codec,
		time.Duration(cfg.AccessLifetimeHours)*time.Hour,
		time.Duration(cfg.RefreshLifetimeDays)*24*time.Hour,
		opts...)
	if err != nil {
		return App{}, err
	}
	validator, err := auth.NewValidator(codec, repos.Users, cfg.TrustEmbeddedRoles, opts...)
	if err != nil {
		return App{}, err
	}
	refresher, err := auth.NewRefresher(validator, issuer, repos.Users, opts...)
	if err != nil {
		return App{}, err
	}
	log.Info("token signing configured",
		"alg", codec.Algorithm(),
		"trust_embedded_roles", cfg.TrustEmbeddedRoles)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	users, err := services.NewUserService(repos.Users, hasher, issuer, log)
	if err != nil {
		return App{}, err
	}

	return App{
		Users:       users,
		Tasks:       services.NewTaskService(repos.Tasks, repos.Users, events, log),
		Comments:    services.NewCommentService(repos.Comments, repos.Tasks, events, log),
		Attachments: services.NewAttachmentService(repos.Attachments, repos.Tasks, objects, 0, log),
		Validator:   validator,
		Refresher:   refresher,
	}, nil
}
