package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lecturehub/apiserver/config"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/db"
	"github.com/lecturehub/apiserver/internal/handlers"
	"github.com/lecturehub/apiserver/internal/logging"
	"github.com/lecturehub/apiserver/internal/metrics"
	"github.com/lecturehub/apiserver/internal/mq"
	"github.com/lecturehub/apiserver/internal/services"
	"github.com/lecturehub/apiserver/internal/storage"
	"github.com/lecturehub/apiserver/internal/store"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	log        *logrus.Entry
}

// Dependencies are the services the router dispatches to.
type Dependencies struct {
	Users    *services.UserService
	Lectures *services.LectureService
	Tokens   handlers.TokenVerifier
	Metrics  *metrics.Metrics
	Log      *logrus.Entry
}

// New connects every backing service and builds the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(cfg)

	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	assets, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if assets.Remote() {
		log.WithField("backend", cfg.Storage.Backend()).Info("object storage ready")
	} else {
		log.Warn("object storage not configured, videos get placeholder locators and are not stored")
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if broker.Enabled() {
		log.WithFields(logrus.Fields{
			"backend": cfg.MQ.Kind,
			"topic":   cfg.MQ.LectureTopic,
		}).Info("lecture events enabled")
	}

	m := metrics.New()
	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	userService := services.NewUserService(store.NewUserRepository(dbConn), tokens)
	lectureService := services.NewLectureService(
		store.NewLectureRepository(dbConn),
		assets,
		services.WithEvents(mq.NewLecturePublisher(broker, cfg.MQ.LectureTopic)),
		services.WithRecorder(m),
		services.WithLogger(log),
	)

	router := NewRouter(cfg, Dependencies{
		Users:    userService,
		Lectures: lectureService,
		Tokens:   tokens,
		Metrics:  m,
		Log:      log,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5001
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		log:        log,
	}, nil
}

// NewRouter mounts middleware and routes.
func NewRouter(cfg config.Config, deps Dependencies) *chi.Mux {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(log),
	)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}
	router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}),
		middleware.Timeout(requestTimeout),
	)

	router.Get("/healthz", handlers.Healthz)
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	if !cfg.IsProduction() {
		router.Get("/", handlers.Banner)
	}

	authMiddleware := handlers.RequireAuth(deps.Tokens)
	exposeErrors := !cfg.IsProduction()

	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, deps.Users, log.WithField("scope", "auth"), exposeErrors)
	})
	router.Route("/api/lectures", func(r chi.Router) {
		handlers.LectureRouter(r, deps.Lectures, authMiddleware, exposeErrors)
	})
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, deps.Users, authMiddleware, exposeErrors)
	})

	staticDir := ""
	if cfg.IsProduction() {
		staticDir = cfg.StaticDir
	}
	router.NotFound(handlers.NotFound(staticDir))
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
