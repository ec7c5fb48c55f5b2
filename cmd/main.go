package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dov-vai/PuzzApi/config"
	"github.com/dov-vai/PuzzApi/internal/pg"
	"github.com/dov-vai/PuzzApi/internal/registry"
	"github.com/dov-vai/PuzzApi/internal/repository/postgres"
	"github.com/dov-vai/PuzzApi/internal/security"
	"github.com/dov-vai/PuzzApi/internal/service"
	httpx "github.com/dov-vai/PuzzApi/internal/transport/http"
	"github.com/dov-vai/PuzzApi/internal/transport/ws"
	"github.com/dov-vai/PuzzApi/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting puzz-api",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Postgres.ToPGConfig())
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- auth ---
	privKey, err := security.LoadRSAPrivateKeyFromPEM(cfg.Security.JWT.PrivateKeyPath)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pubKey, err := security.LoadRSAPublicKeyFromPEM(cfg.Security.JWT.PublicKeyPath)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}

	signer := security.NewSigner(
		privKey, pubKey,
		cfg.Security.JWT.Issuer, cfg.Security.JWT.Audience,
		cfg.Security.JWT.AccessTTL, cfg.Security.JWT.ClockSkew,
	)

	userRepo := postgres.NewUserRepo(pool)
	sessionRepo := postgres.NewSessionRepo(pool)

	authSvc := service.NewAuthService(
		userRepo, sessionRepo, signer,
		cfg.Security.JWT.RefreshTTL,
		security.PasswordPolicy{
			Cost:      cfg.Security.Password.BcryptCost,
			MinLength: cfg.Security.Password.MinLength,
		},
		nil,
	)

	// --- room registry & WS ---
	reg := registry.New()
	wsServer := ws.NewServer(reg, authSvc)

	// --- HTTP ---
	authHandler := httpx.NewAuthHandler(authSvc, cfg.HTTP.SecureCookies)
	gameHandler := httpx.NewGameHandler(reg)
	router := httpx.NewRouter(authHandler, gameHandler, wsServer, cfg.HTTP.AllowedOrigins)

	httpSrv := &http.Server{
		Addr:        cfg.HTTP.Addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
