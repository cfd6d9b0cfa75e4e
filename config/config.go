package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/s0up4200/hashsharing/hashapi"
)

// EnvPrefix is the prefix for credential environment variables
const EnvPrefix = "hashsharing"

// Load loads the configuration from file. When configPath is empty the
// standard locations are searched and a missing file is not an error, so
// credentials can come from the environment alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hashsharing"))
		}

		v.AddConfigPath("/etc/hashsharing/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && configPath == "":
		case configPath != "" && errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("config file not found: %w", err)
		default:
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := applyCredentials(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyCredentials overrides file credentials with any set in the environment
func applyCredentials(cfg *Config) error {
	var creds Credentials
	if err := envconfig.Process(EnvPrefix, &creds); err != nil {
		return fmt.Errorf("error reading credentials from environment: %w", err)
	}
	if creds.Username != "" {
		cfg.HashSharing.Username = creds.Username
	}
	if creds.Password != "" {
		cfg.HashSharing.Password = creds.Password
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("hashsharing.environment", string(hashapi.DefaultEnvironment))
	v.SetDefault("hashsharing.timeout", hashapi.DefaultTimeout)
	v.SetDefault("hashsharing.max_retries", hashapi.DefaultMaxRetries)

	v.SetDefault("fetch.since", "24h")
	v.SetDefault("fetch.output", "table")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// ResolveBaseURL returns the configured override or the environment's URL
func (c *HashSharingConfig) ResolveBaseURL() (string, error) {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/"), nil
	}
	env, err := hashapi.ParseEnvironment(c.Environment)
	if err != nil {
		return "", err
	}
	return env.BaseURL()
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.HashSharing.Username == "" {
		return fmt.Errorf("hashsharing.username is required (or set HASHSHARING_USERNAME)")
	}
	if cfg.HashSharing.Password == "" {
		return fmt.Errorf("hashsharing.password is required (or set HASHSHARING_PASSWORD)")
	}

	if cfg.HashSharing.BaseURL == "" {
		if _, err := hashapi.ParseEnvironment(cfg.HashSharing.Environment); err != nil {
			return fmt.Errorf("hashsharing.environment: %w", err)
		}
	}

	if cfg.HashSharing.Timeout <= 0 {
		return fmt.Errorf("hashsharing.timeout must be positive")
	}
	if cfg.HashSharing.MaxRetries < 0 {
		return fmt.Errorf("hashsharing.max_retries cannot be negative")
	}

	if cfg.Fetch.Since < 0 {
		return fmt.Errorf("fetch.since cannot be negative")
	}
	validOutputs := map[string]bool{
		"table": true,
		"json":  true,
		"yaml":  true,
	}
	if !validOutputs[cfg.Fetch.Output] {
		return fmt.Errorf("invalid fetch output: %s", cfg.Fetch.Output)
	}

	if cfg.Filter.Default != "" {
		if _, ok := cfg.Filter.Presets[cfg.Filter.Default]; !ok {
			return fmt.Errorf("filter.default references unknown preset: %s", cfg.Filter.Default)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
