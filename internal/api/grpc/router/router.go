package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/ansv-auth/internal/api/grpc/handler"
	"github.com/dtroode/ansv-auth/internal/api/grpc/middleware"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/model"
)

// Router builds the ops gRPC server.
type Router struct {
	pinger           model.Pinger
	tokenService     middleware.TokenService
	contextManager   model.ContextManager
	enableReflection bool
	logger           *logger.Logger
}

func New(
	pinger model.Pinger,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	enableReflection bool,
	logger *logger.Logger,
) *Router {
	return &Router{
		pinger:           pinger,
		tokenService:     tokenService,
		contextManager:   contextManager,
		enableReflection: enableReflection,
		logger:           logger,
	}
}

// requiresAuth matches every method except health checks.
func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/grpc.health.")
}

// Register creates the gRPC server with health and, if enabled, reflection.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	recoveryOpt := middleware.RecoveryOption(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.UnaryServerInterceptor(recoveryOpt),
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpt),
			logging.HandleGRPCStream,
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
	)

	healthpb.RegisterHealthServer(s, handler.NewHealth(r.pinger, r.logger))
	if r.enableReflection {
		reflection.Register(s)
	}

	return s
}
