package factory

import (
	"fmt"

	"github.com/mikey/pwned-relay/internal/adapters/hibp"
	"github.com/mikey/pwned-relay/internal/config"
	"github.com/mikey/pwned-relay/internal/core"
	"go.uber.org/zap"
)

// LookupFactory creates breach lookup clients based on configuration
type LookupFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLookupFactory creates a new lookup factory
func NewLookupFactory(cfg *config.Config, logger *zap.Logger) *LookupFactory {
	return &LookupFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBreachLookup creates the breach lookup client
func (f *LookupFactory) CreateBreachLookup() (core.BreachLookup, error) {
	client, err := hibp.NewFactory(f.cfg, f.logger).CreateClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create breach lookup client: %w", err)
	}

	f.logger.Info("Using breach lookup service",
		zap.String("base_url", f.cfg.GetString("breach.base_url")),
		zap.Bool("api_key", f.cfg.GetString("breach.api_key") != ""))
	return client, nil
}
