package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	HashSharing HashSharingConfig `mapstructure:"hashsharing"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Filter      FilterConfig      `mapstructure:"filter"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// HashSharingConfig holds the service connection details
type HashSharingConfig struct {
	Environment string        `mapstructure:"environment"`
	BaseURL     string        `mapstructure:"base_url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// FetchConfig contains defaults for the fetch command
type FetchConfig struct {
	// Since is how far back an initial fetch reaches, e.g. "24h"
	Since  time.Duration `mapstructure:"since"`
	Output string        `mapstructure:"output"`
}

// FilterConfig contains filter definitions
type FilterConfig struct {
	Default string            `mapstructure:"default"`
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Credentials are read from HASHSHARING_USERNAME and HASHSHARING_PASSWORD
type Credentials struct {
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}
