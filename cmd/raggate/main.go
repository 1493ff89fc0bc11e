package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/raggate/raggate/internal/api"
	"github.com/raggate/raggate/internal/auth"
	"github.com/raggate/raggate/internal/config"
	"github.com/raggate/raggate/internal/deferred"
	"github.com/raggate/raggate/internal/rag"
	"github.com/raggate/raggate/internal/routing"
	"github.com/raggate/raggate/internal/tenant"
)

const drainTimeout = 30 * time.Second

func main() {
	cfg := config.Load()
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("raggate: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"staging_dir", cfg.StagingDir,
		"auth_enabled", cfg.TokenSecret != "",
		"anon_access", cfg.AnonAccess,
	)

	store, err := rag.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	resolver, err := auth.NewResolver(auth.Config{
		TokenSecret:      cfg.TokenSecret,
		TokenExpireHours: cfg.TokenExpireHours,
		GuestExpireHours: cfg.GuestExpireHours,
		AuthAccounts:     cfg.AuthAccounts,
		UsersPath:        cfg.UsersPath,
		AnonAccess:       cfg.AnonAccess,
	}, logger)
	if err != nil {
		log.Fatalf("failed to configure auth: %v", err)
	}

	registry := tenant.NewRegistry(func(ctx context.Context, workspace string) (rag.Engine, error) {
		inst := rag.New(store, rag.NewDocumentManager(cfg.StagingDir, workspace), workspace, logger)
		if err := inst.Init(ctx); err != nil {
			return nil, err
		}
		return inst, nil
	}, logger)

	runner := deferred.NewRunner(cfg.Workers, logger)
	runner.Start()

	facade := routing.NewFacade(registry)
	srv := api.NewServer(cfg.ListenAddr, facade, registry, resolver, runner, logger)

	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Drain deferred work before finalizing tenants so in-flight indexing
	// still finds its engines.
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := runner.Shutdown(ctx); err != nil {
		logger.Error("drain deferred runner", "error", err)
	}
	if err := registry.Close(ctx); err != nil {
		logger.Error("close tenant registry", "error", err)
	}
}
