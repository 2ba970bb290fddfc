package hibp

import (
	"net/http"

	"github.com/mikey/pwned-relay/internal/config"
	"github.com/mikey/pwned-relay/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of Client
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Client instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new breach lookup client
func (f *Factory) CreateClient() (core.BreachLookup, error) {
	breachCfg, err := f.cfg.GetBreach()
	if err != nil {
		return nil, err
	}

	logger := f.logger.Named("hibp")
	httpClient := &http.Client{
		Timeout:   breachCfg.Timeout,
		Transport: &loggingTransport{base: http.DefaultTransport, logger: logger},
	}

	return NewClient(
		httpClient,
		breachCfg.BaseURL,
		breachCfg.APIKey,
		breachCfg.UserAgent,
		breachCfg.MaxBodySize,
		logger,
	), nil
}
