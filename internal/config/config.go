// Package config provides configuration types and loading for marketauth.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for the marketauth identity core.
type Config struct {
	// Database configures the SQLite identity store.
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Secrets holds the configured secret values. They flow into service
	// constructors; nothing reads them from ambient state.
	Secrets SecretsConfig `yaml:"secrets" mapstructure:"secrets"`

	// Tokens configures minted token lifetimes.
	Tokens TokensConfig `yaml:"tokens" mapstructure:"tokens"`

	// Verification configures the verification code manager.
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`

	// LogLevel sets the slog level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// SecretsConfig holds configured secret values.
type SecretsConfig struct {
	// SuperuserKey gates superuser bootstrap and superuser password
	// reset. Compared for equality only.
	SuperuserKey string `yaml:"superuser_key" mapstructure:"superuser_key" validate:"required,min=16"`

	// JWTSigningKey is the HS256 secret for minted tokens.
	JWTSigningKey string `yaml:"jwt_signing_key" mapstructure:"jwt_signing_key" validate:"required,min=32"`
}

// TokensConfig configures minted token lifetimes as duration strings.
type TokensConfig struct {
	// AccessTTL is the access token lifetime (e.g. "30m").
	AccessTTL string `yaml:"access_ttl" mapstructure:"access_ttl" validate:"omitempty,duration"`

	// RefreshTTL is the refresh token lifetime (e.g. "168h").
	RefreshTTL string `yaml:"refresh_ttl" mapstructure:"refresh_ttl" validate:"omitempty,duration"`
}

// VerificationConfig configures verification codes.
type VerificationConfig struct {
	// CodeTTL is the verification code lifetime (e.g. "10m").
	CodeTTL string `yaml:"code_ttl" mapstructure:"code_ttl" validate:"omitempty,duration"`
}

// LoadConfig reads the configuration from Viper into a validated Config.
// InitViper must have been called first.
func LoadConfig() (*Config, error) {
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults plus environment
		// variables carry a dev setup.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("database.path", "marketauth.db")
	viper.SetDefault("tokens.access_ttl", "30m")
	viper.SetDefault("tokens.refresh_ttl", "168h")
	viper.SetDefault("verification.code_ttl", "10m")
	viper.SetDefault("log_level", "info")
}

// AccessTTLDuration returns the parsed access token lifetime.
func (c *TokensConfig) AccessTTLDuration() time.Duration {
	return mustDuration(c.AccessTTL)
}

// RefreshTTLDuration returns the parsed refresh token lifetime.
func (c *TokensConfig) RefreshTTLDuration() time.Duration {
	return mustDuration(c.RefreshTTL)
}

// CodeTTLDuration returns the parsed verification code lifetime.
func (c *VerificationConfig) CodeTTLDuration() time.Duration {
	return mustDuration(c.CodeTTL)
}

// mustDuration parses a duration already vetted by Validate. Unset values
// return zero so the consuming component applies its own default.
func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
