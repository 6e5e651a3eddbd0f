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

	"github.com/hearthchat/chat-service/config"
	"github.com/hearthchat/chat-service/internal/pg"
	"github.com/hearthchat/chat-service/internal/postgres"
	"github.com/hearthchat/chat-service/internal/service"
	httpx "github.com/hearthchat/chat-service/internal/transport/http"
	"github.com/hearthchat/chat-service/internal/transport/ws"
	"github.com/hearthchat/chat-service/pkg/logger"
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
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:             cfg.Postgres.DSN,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(pool)
	msgRepo := postgres.NewMessageRepository(pool)

	// --- services ---
	authSvc := service.NewAuthService(userRepo)
	userSvc := service.NewUserService(userRepo)
	msgSvc := service.NewMessageService(msgRepo)

	// --- WS hub, typing state & server ---
	hub := ws.NewHub()
	typing := ws.NewTypingState()
	wsServer := ws.NewServer(hub, typing)

	// --- HTTP ---
	handler := httpx.NewHandler(authSvc, userSvc, msgSvc, hub)
	router := httpx.NewRouter(handler, authSvc, wsServer, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
