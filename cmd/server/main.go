package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nnoitra/terminal/internal/app"
	"github.com/nnoitra/terminal/internal/config"
	"github.com/nnoitra/terminal/internal/logging"
	"github.com/nnoitra/terminal/internal/server"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Nnoitra Terminal",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.BuildInfo{Version: version, Commit: commit}, log)
	if err != nil {
		log.Fatal("Failed to initialize", zap.Error(err))
	}

	srv := server.New(cfg, server.Deps{
		Sessions: a.Sessions,
		Registry: a.Registry,
		Metrics:  a.Metrics,
		Log:      log,
		Version:  version,
	})

	runErr := srv.Run(ctx)
	if runErr != nil {
		log.Error("Server error", zap.Error(runErr))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
	log.Info("Shut down")

	if runErr != nil {
		os.Exit(1)
	}
}
