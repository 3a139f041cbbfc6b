package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	apictx "github.com/dtroode/ansv-auth/internal/api/context"
	grpcrouter "github.com/dtroode/ansv-auth/internal/api/grpc/router"
	grpcserver "github.com/dtroode/ansv-auth/internal/api/grpc/server"
	"github.com/dtroode/ansv-auth/internal/api/http/cookie"
	httprouter "github.com/dtroode/ansv-auth/internal/api/http/router"
	httpserver "github.com/dtroode/ansv-auth/internal/api/http/server"
	"github.com/dtroode/ansv-auth/internal/config"
	"github.com/dtroode/ansv-auth/internal/logger"
	"github.com/dtroode/ansv-auth/internal/metrics"
	"github.com/dtroode/ansv-auth/internal/model"
	"github.com/dtroode/ansv-auth/internal/password"
	"github.com/dtroode/ansv-auth/internal/server"
	"github.com/dtroode/ansv-auth/internal/service"
	"github.com/dtroode/ansv-auth/internal/token"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ops gRPC server",
		RunE:  runServe,
	}
}

// app holds the wired servers.
type app struct {
	handler      http.Handler
	servers      []model.Server
	tokenService *service.TokenService
}

func newTokenService(cfg *config.Config, st *stores, log *logger.Logger) *service.TokenService {
	codec := token.NewJWT(cfg.ResolveSecrets(log), token.WithIssuer(cfg.JWT.Issuer))
	return service.NewTokenService(codec, st.sessions, st.users, service.TokenTTLs{
		Access:       cfg.JWT.AccessTTL(),
		Refresh:      cfg.JWT.RefreshTTL(),
		RefreshShort: cfg.JWT.RefreshShortTTL(),
	}, log)
}

func newApp(cfg *config.Config, st *stores, log *logger.Logger) (*app, error) {
	hasher, err := password.NewScrypt(cfg.KDF.Params())
	if err != nil {
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}
	sameSite, err := cfg.Cookie.SameSiteMode()
	if err != nil {
		return nil, err
	}

	authService := service.NewAuth(st.users, hasher, log)
	tokenService := newTokenService(cfg, st, log)
	ctxMgr := apictx.NewManager()
	cookies := cookie.NewBinder(cfg.Cookie.Name,
		cookie.WithPath(cfg.Cookie.Path),
		cookie.WithDomain(cfg.Cookie.Domain),
		cookie.WithSecure(cfg.Cookie.Secure),
		cookie.WithSameSite(sameSite),
	)

	handler := httprouter.New(authService, tokenService, cookies, ctxMgr, st.pinger,
		metrics.NewMetrics(), cfg.HTTP.MaxBodyBytes, log).Register()

	a := &app{
		handler:      handler,
		servers:      []model.Server{httpserver.NewHTTPServer(handler, cfg.HTTP.Address, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)},
		tokenService: tokenService,
	}
	if cfg.GRPC.Enabled {
		grpcSrv := grpcrouter.New(st.pinger, tokenService, ctxMgr, cfg.GRPC.EnableReflection, log).Register()
		a.servers = append(a.servers, grpcserver.NewGRPCServer(grpcSrv, cfg.GRPC.Address))
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	log.Info("Starting authd",
		"version", version,
		"commit", commit,
		"date", date)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	a, err := newApp(cfg, st, log)
	if err != nil {
		return err
	}

	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	errCh := make(chan error, len(a.servers))

	var wg sync.WaitGroup
	for _, s := range a.servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			log.Info("Starting server", "address", s.Address())
			if err := s.Start(sl); err != nil {
				errCh <- fmt.Errorf("server on %s: %w", s.Address(), err)
			}
		}(s)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("received interruption signal, shutting down")
	case serveErr = <-errCh:
		log.Error("server failed, shutting down", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	for _, s := range a.servers {
		if err := s.Stop(shutdownCtx); err != nil {
			log.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	log.Info("shutdown complete")
	return serveErr
}
