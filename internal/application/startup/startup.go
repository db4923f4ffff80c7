// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/application/container"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/cleanup"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/security"
	"github.com/VendorLens/vendorlens-go/internal/presentation/http/server"
	"github.com/VendorLens/vendorlens-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
  _   __             __           __
 | | / /__ ___  ___/ /__  ____  / /  ___ ___  ___
 | |/ / -_) _ \/ _  / _ \/ __/ / /__/ -_) _ \(_-<
 |___/\__/_//_/\_,_/\___/_/   /____/\__/_//_/___/
` + "\033[0m")

	// Step 1: Ensure a signing secret exists. An ephemeral one keeps the
	// service usable but invalidates outstanding tokens on restart.
	if config.JWTSecret == "" {
		secret, err := security.GenerateSecureKey(32)
		if err != nil {
			return fmt.Errorf("failed to generate ephemeral JWT secret: %w", err)
		}
		config.JWTSecret = secret
		log.Println("WARNING: JWT_SECRET not set; generated an ephemeral signing secret")
	}

	// Step 2: Create dependency injection container
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}

	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Step 3: Verify the backing store
	logger.Startup().Info("Verifying UI-state store connection...")
	if err := appContainer.Store.Ping(ctx); err != nil {
		return fmt.Errorf("UI-state store unreachable: %w", err)
	}
	logger.LogStartupPhase("store", time.Since(start), true, map[string]any{"driver": config.DBDriver})

	// Step 4: Start background cleanup worker
	logger.Startup().Info("Starting background cleanup worker...")
	startWorkerTime := time.Now()

	cleanupConfig := cleanup.NewConfig()
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, appContainer.Store, cleanupConfig)
	go cleanupWorker.Start(ctx)

	logger.Startup().Info("Background cleanup worker started", "duration", time.Since(startWorkerTime))

	// Step 5: Start ops activity broadcaster
	logger.Startup().Info("Starting ops activity broadcaster...")
	go appContainer.OpsBroadcaster.Run()

	// Step 6: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 7: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	totalStartupTime := time.Since(start)
	logger.Startup().Info("Application startup complete",
		"totalDuration", totalStartupTime,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	// Stop server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Close container-held resources
	logger.Shutdown().Info("Closing container resources...")
	if err := appContainer.Close(); err != nil {
		log.Printf("Error closing container resources: %v", err)
	}

	elapsed := time.Since(start)
	log.Printf("Application shutdown complete: uptime %s, shutdown took %s", elapsed, time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
