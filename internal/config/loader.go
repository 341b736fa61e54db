package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and environment
// variables. If configFile is empty, it searches for marketauth.yaml/.yml
// in standard locations.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file found in any standard location. Set name and
		// type without search paths so ReadInConfig returns
		// ConfigFileNotFoundError (handled gracefully by callers).
		viper.SetConfigName("marketauth")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: MARKETAUTH_SECRETS_SUPERUSER_KEY
	viper.SetEnvPrefix("MARKETAUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a marketauth config file
// with an explicit YAML extension.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".marketauth"),
		"/etc/marketauth",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "marketauth"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys so environment variables can
// override them individually.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("database.path")
	_ = viper.BindEnv("secrets.superuser_key")
	_ = viper.BindEnv("secrets.jwt_signing_key")
	_ = viper.BindEnv("tokens.access_ttl")
	_ = viper.BindEnv("tokens.refresh_ttl")
	_ = viper.BindEnv("verification.code_ttl")
	_ = viper.BindEnv("log_level")
}
