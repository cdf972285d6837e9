package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plumeblog/plume/internal/audit"
	"github.com/plumeblog/plume/internal/auth"
	"github.com/plumeblog/plume/internal/ban"
	"github.com/plumeblog/plume/internal/config"
	"github.com/plumeblog/plume/internal/httpapi"
	"github.com/plumeblog/plume/internal/mail"
	"github.com/plumeblog/plume/internal/obs"
	"github.com/plumeblog/plume/internal/rbac"
	"github.com/plumeblog/plume/internal/routereg"
	mongostore "github.com/plumeblog/plume/internal/store/mongo"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	cfg := config.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	logger, err := obs.NewLogger(cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := mongostore.NewStore(ctx, cfg.MongoDB)
	if err != nil {
		logger.Fatalw("mongo connect failed", "error", err)
	}
	defer func() {
		if err := store.Disconnect(context.Background()); err != nil {
			logger.Errorw("mongo disconnect failed", "error", err)
		}
	}()

	accessSecret := cfg.Token.AccessSecret
	refreshSecret := cfg.Token.RefreshSecret
	if accessSecret == "" || refreshSecret == "" {
		if !cfg.Development {
			logger.Fatalw("token secrets are required outside development")
		}
		accessSecret = "plume-dev-access-secret"
		refreshSecret = "plume-dev-refresh-secret"
		logger.Warnw("using development token secrets")
	}

	tokens, err := auth.NewTokenService(accessSecret, refreshSecret,
		auth.WithAccessTTL(cfg.Token.AccessTTL),
		auth.WithRefreshTTL(cfg.Token.RefreshTTL),
	)
	if err != nil {
		logger.Fatalw("token service", "error", err)
	}

	rbacSvc, err := rbac.NewService(store.Permissions(), store.Roles(), store.Users())
	if err != nil {
		logger.Fatalw("rbac service", "error", err)
	}
	if err := rbacSvc.Seed(ctx); err != nil {
		logger.Fatalw("seed roles and permissions", "error", err)
	}

	authSvc, err := auth.NewService(store.Users(), rbacSvc, tokens, store.Tokens(),
		&mail.LogMailer{Log: logger}, cfg.APIURL)
	if err != nil {
		logger.Fatalw("auth service", "error", err)
	}

	banSvc, err := ban.NewService(store.Bans(), store.Users(), rbacSvc)
	if err != nil {
		logger.Fatalw("ban service", "error", err)
	}

	slugs := routereg.NewSlugIndex(store.SlugSource())
	if err := slugs.Rebuild(ctx); err != nil {
		logger.Fatalw("slug index rebuild", "error", err)
	}
	registry := routereg.NewRegistry(store.Routes(), rbacSvc, slugs)
	routeSvc, err := routereg.NewService(store.Routes(), registry, rbacSvc, logger)
	if err != nil {
		logger.Fatalw("route service", "error", err)
	}
	if err := routeSvc.EnsureRoutes(ctx, httpapi.DefaultRoutes()); err != nil {
		logger.Fatalw("route table bootstrap", "error", err)
	}
	if err := registry.Rebuild(ctx); err != nil {
		logger.Fatalw("route registry rebuild", "error", err)
	}

	api := httpapi.New(httpapi.Deps{
		Log:          logger,
		Trail:        audit.NewTrail(logger),
		Auth:         authSvc,
		RBAC:         rbacSvc,
		Bans:         banSvc,
		Routes:       routeSvc,
		Registry:     registry,
		Ready:        store.Ping,
		Version:      version,
		CookieSecure: !cfg.Development,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Infow("starting plume-api", "version", version, "addr", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Infow("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	logger.Infow("stopped")
}
