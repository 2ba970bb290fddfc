package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/pwned-relay/internal/config"
	"github.com/mikey/pwned-relay/internal/di"
	"github.com/mikey/pwned-relay/internal/ports"
	"github.com/mikey/pwned-relay/internal/telemetry"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		var startupErr *config.StartupError
		if errors.As(dig.RootCause(err), &startupErr) {
			fmt.Fprintf(os.Stderr, "Startup error: %v\n", startupErr)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(logger *zap.Logger, transport ports.Transport, sdk *telemetry.SDK) error {
	defer logger.Sync()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sdk.Shutdown(ctx); err != nil {
			logger.Error("Failed to flush telemetry", zap.Error(err))
		}
	}()

	// Start the transport
	if err := transport.Start(); err != nil {
		logger.Error("Failed to start transport", zap.Error(err), zap.String("transport", transport.Name()))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the transport, waiting for in-flight replies
	if err := transport.Stop(); err != nil {
		logger.Error("Failed to stop transport", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
