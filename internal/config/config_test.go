package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// resetViper clears global viper state so tests don't bleed into each other.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func validSecretsEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MARKETAUTH_SECRETS_SUPERUSER_KEY", "super-secret-key-16+")
	t.Setenv("MARKETAUTH_SECRETS_JWT_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)
	validSecretsEnv(t)
	InitViper("")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Database.Path != "marketauth.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "marketauth.db")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if got := cfg.Tokens.AccessTTLDuration(); got != 30*time.Minute {
		t.Errorf("AccessTTLDuration() = %v, want 30m", got)
	}
	if got := cfg.Tokens.RefreshTTLDuration(); got != 168*time.Hour {
		t.Errorf("RefreshTTLDuration() = %v, want 168h", got)
	}
	if got := cfg.Verification.CodeTTLDuration(); got != 10*time.Minute {
		t.Errorf("CodeTTLDuration() = %v, want 10m", got)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "marketauth.yaml")
	content := `
database:
  path: /var/lib/marketauth/identities.db
secrets:
  superuser_key: super-secret-key-16+
  jwt_signing_key: 0123456789abcdef0123456789abcdef
tokens:
  access_ttl: 15m
  refresh_ttl: 72h
verification:
  code_ttl: 5m
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	InitViper(path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Database.Path != "/var/lib/marketauth/identities.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Secrets.SuperuserKey != "super-secret-key-16+" {
		t.Errorf("Secrets.SuperuserKey = %q", cfg.Secrets.SuperuserKey)
	}
	if cfg.Tokens.AccessTTLDuration() != 15*time.Minute {
		t.Errorf("AccessTTLDuration() = %v, want 15m", cfg.Tokens.AccessTTLDuration())
	}
	if cfg.Verification.CodeTTLDuration() != 5*time.Minute {
		t.Errorf("CodeTTLDuration() = %v, want 5m", cfg.Verification.CodeTTLDuration())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	resetViper(t)
	validSecretsEnv(t)
	t.Setenv("MARKETAUTH_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("MARKETAUTH_LOG_LEVEL", "warn")
	InitViper("")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			"missing superuser key",
			map[string]string{
				"MARKETAUTH_SECRETS_JWT_SIGNING_KEY": "0123456789abcdef0123456789abcdef",
			},
			"secrets.superuserkey is required",
		},
		{
			"short superuser key",
			map[string]string{
				"MARKETAUTH_SECRETS_SUPERUSER_KEY":   "short",
				"MARKETAUTH_SECRETS_JWT_SIGNING_KEY": "0123456789abcdef0123456789abcdef",
			},
			"must be at least 16 characters",
		},
		{
			"short signing key",
			map[string]string{
				"MARKETAUTH_SECRETS_SUPERUSER_KEY":   "super-secret-key-16+",
				"MARKETAUTH_SECRETS_JWT_SIGNING_KEY": "too-short",
			},
			"must be at least 32 characters",
		},
		{
			"bad log level",
			map[string]string{
				"MARKETAUTH_SECRETS_SUPERUSER_KEY":   "super-secret-key-16+",
				"MARKETAUTH_SECRETS_JWT_SIGNING_KEY": "0123456789abcdef0123456789abcdef",
				"MARKETAUTH_LOG_LEVEL":               "loud",
			},
			"log_level must be one of",
		},
		{
			"bad duration",
			map[string]string{
				"MARKETAUTH_SECRETS_SUPERUSER_KEY":   "super-secret-key-16+",
				"MARKETAUTH_SECRETS_JWT_SIGNING_KEY": "0123456789abcdef0123456789abcdef",
				"MARKETAUTH_TOKENS_ACCESS_TTL":       "soon",
			},
			"must be a positive duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			InitViper("")

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.wantErr)) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
