package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/pwned-relay/internal/adapters/transport"
	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, console *transport.ConsoleTransport) error {
		return run(logger, console, flags)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run processes a single -text message, or every line of -file or stdin
func run(logger *zap.Logger, console *transport.ConsoleTransport, flags *di.CLIFlags) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.Text != "" {
		outcome := console.ProcessText(ctx, flags.Text)
		logger.Debug("Processed message",
			zap.String("dispatch_id", outcome.ID),
			zap.String("outcome", outcome.Status.String()))
		if outcome.Ignored() {
			return fmt.Errorf("message is not a %s command", core.CommandPrefix)
		}
		// The error has already been printed as the reply
		return outcome.Err
	}

	var input io.Reader = os.Stdin
	if flags.File != "" {
		file, err := os.Open(flags.File)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		logger.Info("Reading messages from file", zap.String("file", flags.File))
	} else {
		logger.Info("Reading messages from stdin")
	}

	return console.RunReader(ctx, input)
}
