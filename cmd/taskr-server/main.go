package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/taskr/internal/app"
	"github.com/existflow/taskr/internal/config"
	"github.com/existflow/taskr/internal/logger"
	"github.com/existflow/taskr/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config, using defaults: %v", err)
		cfg = config.DefaultConfig()
	}
	if addr := os.Getenv("TASKR_SERVER_ADDR"); addr != "" {
		cfg.ServerAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		FilePath:   cfg.LogFile,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    true,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("Failed to open data: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("Error closing data: %v", err)
		}
	}()
	if _, err := a.Refresh(ctx); err != nil {
		log.Printf("Initial refresh failed: %v", err)
	}
	a.Start()

	srv := server.New(a, cfg.APITokenHash)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.ServerAddr) }()

	log.Printf("taskr API starting on %s", cfg.ServerAddr)
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
