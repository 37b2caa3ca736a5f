package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskhub/apiserver/config"
	"github.com/taskhub/apiserver/internal/db"
	"github.com/taskhub/apiserver/internal/handlers"
	"github.com/taskhub/apiserver/internal/mq"
	"github.com/taskhub/apiserver/internal/services"
	"github.com/taskhub/apiserver/internal/storage"
	"github.com/taskhub/apiserver/internal/store"
)

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	storage    *storage.Storage
	log        *slog.Logger
}

// New connects to the database, message broker and object storage named by
// cfg and builds the HTTP server on top of them.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	broker, err := mq.Open(ctx, cfg.MQ, log)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = broker.Close()
		_ = dbConn.Close()
		return nil, err
	}
	// A nil *storage.Storage must stay a nil interface.
	var objectStore services.ObjectStore
	if objects != nil {
		objectStore = objects
	}

	app, err := NewApp(cfg.Auth, Repositories{
		Users:       store.NewUserRepository(dbConn),
		Tasks:       store.NewTaskRepository(dbConn),
		Comments:    store.NewCommentRepository(dbConn),
		Attachments: store.NewAttachmentRepository(dbConn),
	}, objectStore, mq.NewEventPublisher(broker, cfg.MQ.EventsChannel, log), log)
	if err != nil {
		if objects != nil {
			_ = objects.Close()
		}
		_ = broker.Close()
		_ = dbConn.Close()
		return nil, err
	}

	router := NewRouter(app, log)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server configured",
		"port", port,
		"mq", broker.Name(),
		"storage", cfg.Storage.Backend)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         broker,
		storage:    objects,
		log:        log,
	}, nil
}

// NewRouter mounts every route of the API on a chi router.
func NewRouter(app App, log *slog.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.Authenticate(app.Validator, log),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, app.Users, app.Refresher, log)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, app.Users, app.Comments, log)
	})
	router.Route("/tasks", func(r chi.Router) {
		handlers.TaskRouter(r, app.Tasks, log,
			handlers.TaskCommentRoutes(app.Comments, log),
			handlers.TaskAttachmentRoutes(app.Attachments, log),
		)
	})
	router.Route("/comments", func(r chi.Router) {
		handlers.CommentRouter(r, app.Comments, log)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the connections the
// server owns.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		err = errors.Join(err, s.mq.Close())
	}
	if s.storage != nil {
		err = errors.Join(err, s.storage.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
