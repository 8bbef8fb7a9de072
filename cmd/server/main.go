package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/config"
	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/logging"
	"github.com/GriffinCanCode/browser-gateway/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Parse flags
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Listen address")
	policyMode := flag.String("policy", cfg.Policy.Mode, "Policy mode: allowlist or open")
	policyFile := flag.String("policy-file", cfg.Policy.File, "Optional YAML policy file")
	headless := flag.Bool("headless", cfg.Browser.Headless, "Run Chromium headless")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (debug logs, console encoding)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Policy.Mode = *policyMode
	cfg.Policy.File = *policyFile
	cfg.Browser.Headless = *headless
	cfg.Logging.Development = *dev
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	srv, err := server.NewServer(cfg, logger, nil)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	logger.Info("Browser gateway ready",
		zap.String("addr", srv.Addr()),
		zap.String("artifacts_dir", cfg.Browser.ArtifactsDir),
		zap.String("policy", cfg.Policy.Mode),
		zap.Bool("headless", cfg.Browser.Headless),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		os.Exit(1)
	}
}
