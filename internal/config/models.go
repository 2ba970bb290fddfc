package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Supported transport types
const (
	TransportTelegram = "telegram"
	TransportSMTP     = "smtp"
	TransportConsole  = "console"
)

// StartupError is returned when the configuration cannot be used to start the process
type StartupError struct {
	Field string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// ErrMissingToken is wrapped by the StartupError returned when no bot token is configured
var ErrMissingToken = errors.New("bot access token is required")

// TransportConfig represents the transport selection
type TransportConfig struct {
	Type string `validate:"required,oneof=telegram smtp console"`
}

// TelegramConfig represents the configuration for the Telegram transport
type TelegramConfig struct {
	Token       string `validate:"required"`
	APIEndpoint string `validate:"required"`
	PollTimeout int    `validate:"gte=0"`
	Debug       bool
}

// BreachConfig represents the configuration for the breach lookup service
type BreachConfig struct {
	BaseURL     string `validate:"required,url"`
	APIKey      string
	UserAgent   string        `validate:"required"`
	Timeout     time.Duration `validate:"gt=0"`
	MaxBodySize int64         `validate:"gt=0"`
}

// SMTPConfig represents the configuration for the SMTP transport
type SMTPConfig struct {
	ListenAddress   string `validate:"required,hostname_port"`
	Domain          string `validate:"required"`
	RelayAddress    string `validate:"required"`
	RelayPort       int    `validate:"gt=0,lte=65535"`
	FromAddress     string `validate:"required,contains=@"`
	AcceptedDomains []string
}

// ConsoleConfig represents the configuration for the console transport
type ConsoleConfig struct {
	Prompt string
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// TelemetryConfig represents the OpenTelemetry switches.
// Enabled signals are exported to stderr.
type TelemetryConfig struct {
	TracingEnabled bool
	MetricsEnabled bool
	ExportInterval time.Duration
}

// GetTransport returns the transport configuration
func (c *Config) GetTransport() TransportConfig {
	return TransportConfig{
		Type: strings.ToLower(c.GetString("transport.type")),
	}
}

// GetTelegram returns the Telegram configuration
func (c *Config) GetTelegram() TelegramConfig {
	return TelegramConfig{
		Token:       c.GetString("telegram.token"),
		APIEndpoint: c.GetString("telegram.api_endpoint"),
		PollTimeout: c.GetInt("telegram.poll_timeout"),
		Debug:       c.GetBool("telegram.debug"),
	}
}

// GetBreach returns the breach lookup configuration
func (c *Config) GetBreach() (BreachConfig, error) {
	timeout, err := c.GetDuration("breach.timeout")
	if err != nil {
		return BreachConfig{}, &StartupError{Field: "breach.timeout", Err: err}
	}
	return BreachConfig{
		BaseURL:     c.GetString("breach.base_url"),
		APIKey:      c.GetString("breach.api_key"),
		UserAgent:   c.GetString("breach.user_agent"),
		Timeout:     timeout,
		MaxBodySize: c.v.GetInt64("breach.max_body_size"),
	}, nil
}

// GetSMTP returns the SMTP transport configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress:   c.GetString("smtp.listen_address"),
		Domain:          c.GetString("smtp.domain"),
		RelayAddress:    c.GetString("smtp.relay_address"),
		RelayPort:       c.GetInt("smtp.relay_port"),
		FromAddress:     c.GetString("smtp.from_address"),
		AcceptedDomains: c.GetStringSlice("smtp.accepted_domains"),
	}
}

// GetConsole returns the console transport configuration
func (c *Config) GetConsole() ConsoleConfig {
	return ConsoleConfig{
		Prompt: c.GetString("console.prompt"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}

// GetTelemetry returns the telemetry configuration
func (c *Config) GetTelemetry() TelemetryConfig {
	return TelemetryConfig{
		TracingEnabled: c.GetBool("telemetry.tracing_enabled"),
		MetricsEnabled: c.GetBool("telemetry.metrics_enabled"),
		ExportInterval: c.v.GetDuration("telemetry.export_interval"),
	}
}

// Validate checks the sections needed by the selected transport.
// Any problem is reported as a StartupError.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	transport := c.GetTransport()
	if err := validateSection(validate, "transport", transport); err != nil {
		return err
	}

	if err := validateSection(validate, "logging", c.GetLogging()); err != nil {
		return err
	}

	breach, err := c.GetBreach()
	if err != nil {
		return err
	}
	if err := validateSection(validate, "breach", breach); err != nil {
		return err
	}

	switch transport.Type {
	case TransportTelegram:
		telegram := c.GetTelegram()
		if telegram.Token == "" {
			return &StartupError{Field: "telegram.token", Err: ErrMissingToken}
		}
		return validateSection(validate, "telegram", telegram)
	case TransportSMTP:
		return validateSection(validate, "smtp", c.GetSMTP())
	}
	return nil
}

func validateSection(validate *validator.Validate, section string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &StartupError{
			Field: section + "." + fe.Field(),
			Err:   fmt.Errorf("failed on the '%s' rule", fe.Tag()),
		}
	}
	return &StartupError{Field: section, Err: err}
}
