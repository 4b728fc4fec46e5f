package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Afonso017/fraud-detector/config"
	"github.com/Afonso017/fraud-detector/internal/app"
	httpserver "github.com/Afonso017/fraud-detector/internal/handlers/http"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutting down...")
		cancel()
	}()

	log.Info("initializing fraud detector...")

	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		log.Error("failed to initialize app", "err", err)
		os.Exit(1)
	}

	// Outbound event publisher
	go application.Publisher.Run(ctx)

	// Background consumers: the profile updater always, the audit writer
	// when audit storage is available
	processors := application.Processors()
	log.Info("starting event processors", "count", len(processors))
	for _, proc := range processors {
		go func(p app.Processor) {
			if err := p.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("event processor stopped", "err", err)
			}
		}(proc)
	}

	// HTTP API
	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	server := httpserver.NewServer(httpAddr,
		application.Analysis, application.ProfileService, application.Broadcaster,
		cfg.Debug, log)

	go func() {
		log.Info("HTTP server listening", "addr", httpAddr)
		if err := server.Start(); err != nil {
			log.Info("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()

	// Let the publisher flush its queue before tearing down the producer
	select {
	case <-application.Publisher.Done():
	case <-time.After(5 * time.Second):
		log.Warn("publisher did not drain in time")
	}

	log.Info("cleaning up app resources...")
	application.Cleanup()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info("shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "err", err)
	}

	log.Info("service stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default: // envLocal
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
