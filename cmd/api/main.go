package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/storagegate/internal/app"
	"github.com/markdave123-py/storagegate/internal/config"
	"github.com/markdave123-py/storagegate/internal/logging"
)

func main() {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg, os.Stdout)

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(application.Server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := shutdownContext(cfg.ShutdownTimeout)
		defer cancel()
		return application.Server.Shutdown(shutdownCtx)
	})

	logger.WithField("port", cfg.Port).Info("storagegate is running")
	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// shutdownContext bounds the graceful shutdown; zero waits for in-flight
// requests however long they take.
func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
