// Command server runs the callbook HTTP API and folder watcher.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/callbook/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("server start failed: %v", err)
	}

	logger := srv.infra.Logger
	logger.Info("callbook started", "version", cfg.Version, "addr", cfg.Server.Addr(), "env", cfg.Env())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("callbook stopped")
}
