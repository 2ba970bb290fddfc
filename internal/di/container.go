package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/pwned-relay/internal/config"
	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/factory"
	"github.com/mikey/pwned-relay/internal/logging"
	"github.com/mikey/pwned-relay/internal/ports"
	"github.com/mikey/pwned-relay/internal/telemetry"
	"github.com/mikey/pwned-relay/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration, rejected up front when incomplete
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register telemetry exporters and instrumentation
	if err := container.Provide(func(cfg *config.Config) (*telemetry.SDK, error) {
		telemetryCfg := cfg.GetTelemetry()
		return telemetry.NewSDK(telemetry.SDKOptions{
			ServiceName:    "pwned-relay",
			TracingEnabled: telemetryCfg.TracingEnabled,
			MetricsEnabled: telemetryCfg.MetricsEnabled,
			ExportInterval: telemetryCfg.ExportInterval,
		})
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(sdk *telemetry.SDK) (*telemetry.Instrumentation, error) {
		return telemetry.New(sdk.Options())
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register transport
	if err := container.Provide(func(f *factory.TransportFactory, logger *zap.Logger) (ports.Transport, error) {
		transport, err := f.CreateTransport()
		if err != nil {
			return nil, err
		}
		logger.Info("Using transport", zap.String("transport", transport.Name()))
		return transport, nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers the factories, the breach lookup client and the
// dispatcher shared by the service and the CLI
func provideCommon(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewLookupFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTransportFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register breach lookup client
	if err := container.Provide(func(f *factory.LookupFactory) (core.BreachLookup, error) {
		return f.CreateBreachLookup()
	}); err != nil {
		return err
	}

	// Register dispatcher
	if err := container.Provide(core.NewDispatcher); err != nil {
		return err
	}

	return nil
}
