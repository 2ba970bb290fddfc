package di

import (
	"flag"
	"os"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/pwned-relay/internal/adapters/transport"
	"github.com/mikey/pwned-relay/internal/config"
	"github.com/mikey/pwned-relay/internal/factory"
	"github.com/mikey/pwned-relay/internal/logging"
	"github.com/mikey/pwned-relay/internal/telemetry"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	Text string
	File string

	// Breach lookup flags
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	// flag.CommandLine exits on parse errors
	flags, _ := ParseFlagSet(flag.CommandLine, os.Args[1:])
	return flags
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	// Input flags
	fs.StringVar(&flags.Text, "text", "", "Message to process, e.g. \"/pwned someone@example.com\"")
	fs.StringVar(&flags.File, "file", "", "File with one message per line (use stdin if neither -text nor -file is given)")

	// Breach lookup flags
	fs.StringVar(&flags.BaseURL, "base-url", "", "Breach lookup service base URL")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for the breach lookup service")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Breach lookup request timeout")

	// Output flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (command line flags take precedence)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := createConfigFromFlags(flags)
		if err != nil {
			return nil, err
		}
		if flags.ConfigFile != "" {
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// No telemetry for one-shot runs
	if err := container.Provide(telemetry.NewNoop); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register console transport
	if err := container.Provide(func(f *factory.TransportFactory) *transport.ConsoleTransport {
		return f.CreateConsoleTransport()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags builds the CLI configuration. The console transport
// is always used and flags override the environment and the config file.
func createConfigFromFlags(flags *CLIFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		var err error
		cfg, err = config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewFromEnv()
	}

	v := cfg.GetViper()
	v.Set("transport.type", config.TransportConsole)
	if flags.BaseURL != "" {
		v.Set("breach.base_url", flags.BaseURL)
	}
	if flags.APIKey != "" {
		v.Set("breach.api_key", flags.APIKey)
	}
	if flags.Timeout > 0 {
		v.Set("breach.timeout", flags.Timeout.String())
	}

	return cfg, nil
}
