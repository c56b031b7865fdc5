// Package main is the entry point for the item API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yigityildirimoglu/jenkins-demo/internal/config"
	"github.com/yigityildirimoglu/jenkins-demo/internal/logging"
	"github.com/yigityildirimoglu/jenkins-demo/internal/server"
	"github.com/yigityildirimoglu/jenkins-demo/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to an optional TOML configuration file")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fallback().Error("failed to load configuration", zap.Error(err))
		return 1
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		logging.Fallback().Error("failed to initialize logger", zap.Error(err))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.String("config_file", *configPath),
		zap.Int("server_port", cfg.ServerPort),
		zap.Int("probe_port", cfg.ProbePort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("events_enabled", cfg.EventsEnabled),
		zap.Strings("cors_allowed_origins", cfg.CORSAllowedOrigins),
	)

	// The process owns exactly one store for its lifetime.
	itemStore := store.NewMemoryStore()

	srv := server.New(cfg, logger, itemStore)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return 1
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}
