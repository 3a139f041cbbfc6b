package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/ansv-auth/internal/api/http/cookie"
	"github.com/dtroode/ansv-auth/internal/api/http/handler"
	"github.com/dtroode/ansv-auth/internal/api/http/middleware"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/metrics"
	"github.com/dtroode/ansv-auth/internal/model"
	"github.com/dtroode/ansv-auth/internal/service"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	authService    *service.Auth
	tokenService   *service.TokenService
	cookies        *cookie.Binder
	contextManager model.ContextManager
	pinger         model.Pinger
	metrics        *metrics.Metrics
	maxBodyBytes   int64
	logger         *logger.Logger
}

// New creates a Router. maxBodyBytes caps every request body.
func New(
	authService *service.Auth,
	tokenService *service.TokenService,
	cookies *cookie.Binder,
	contextManager model.ContextManager,
	pinger model.Pinger,
	metrics *metrics.Metrics,
	maxBodyBytes int64,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		tokenService:   tokenService,
		cookies:        cookies,
		contextManager: contextManager,
		pinger:         pinger,
		metrics:        metrics,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
}

// Register builds the HTTP handler.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	auth := handler.NewAuth(r.authService, r.tokenService, r.cookies, r.contextManager, r.metrics, r.logger)
	health := handler.NewHealth(r.pinger, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(logging.Handle)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(middleware.Metrics(r.metrics))
	mux.Use(middleware.BodyLimit(r.maxBodyBytes))

	mux.Get("/healthz", health.Check)
	mux.Method(http.MethodGet, "/metrics", r.metrics.Handler())

	mux.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", auth.Register)
		ar.Post("/login", auth.Login)
		ar.Post("/refresh", auth.Refresh)
		ar.Post("/logout", auth.Logout)

		ar.Group(func(pr chi.Router) {
			pr.Use(authenticate.Handle)
			pr.Get("/me", auth.Me)
		})
	})

	return mux
}
