package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/pwned-relay/")
	v.AddConfigPath("$HOME/.pwned-relay")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	configureEnv(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromEnv creates a configuration instance from defaults and the
// environment only, without searching for a config file
func NewFromEnv() *Config {
	_ = godotenv.Load()

	v := NewEmptyViper()
	configureEnv(v)
	return &Config{v: v}
}

// NewFromFile creates a configuration instance from an explicit config file.
// The environment still overrides the file.
func NewFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := NewEmptyViper()
	configureEnv(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// configureEnv maps PWNED_RELAY_SECTION_KEY variables onto section.key
func configureEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("PWNED_RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v)
}

// bindEnv registers the environment names that do not follow the prefix scheme
func bindEnv(v *viper.Viper) {
	// The bot token is conventionally exported as TELEGRAM_BOT_TOKEN
	_ = v.BindEnv("telegram.token", "PWNED_RELAY_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("breach.api_key", "PWNED_RELAY_BREACH_API_KEY", "HIBP_API_KEY")
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Transport defaults
	v.SetDefault("transport.type", "telegram")

	// Telegram defaults
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("telegram.poll_timeout", 60)
	v.SetDefault("telegram.debug", false)

	// Breach lookup defaults
	v.SetDefault("breach.base_url", "https://haveibeenpwned.com")
	v.SetDefault("breach.api_key", "")
	v.SetDefault("breach.user_agent", "pwned-relay")
	v.SetDefault("breach.timeout", "10s")
	v.SetDefault("breach.max_body_size", 1<<20)

	// SMTP defaults
	v.SetDefault("smtp.listen_address", "0.0.0.0:2525")
	v.SetDefault("smtp.domain", "localhost")
	v.SetDefault("smtp.relay_address", "localhost")
	v.SetDefault("smtp.relay_port", 25)
	v.SetDefault("smtp.from_address", "pwned@localhost")
	v.SetDefault("smtp.accepted_domains", []string{})

	// Console defaults
	v.SetDefault("console.prompt", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Telemetry defaults
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.metrics_enabled", false)
	v.SetDefault("telemetry.export_interval", "60s")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
