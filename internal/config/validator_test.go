package config

import (
	"strings"
	"testing"
)

// minimalValidConfig returns a minimal valid Config for testing.
func minimalValidConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "marketauth.db"},
		Secrets: SecretsConfig{
			SuperuserKey:  "super-secret-key-16+",
			JWTSigningKey: "0123456789abcdef0123456789abcdef",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_OptionalFieldsEmpty(t *testing.T) {
	t.Parallel()

	// Unset lifetimes and log level are valid; consumers apply their
	// own defaults.
	cfg := minimalValidConfig()
	cfg.Tokens = TokensConfig{}
	cfg.Verification = VerificationConfig{}
	cfg.LogLevel = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_DurationTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"minutes", "30m", true},
		{"compound", "1h30m", true},
		{"zero", "0s", false},
		{"negative", "-5m", false},
		{"bare number", "30", false},
		{"words", "half an hour", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalValidConfig()
			cfg.Tokens.AccessTTL = tt.value

			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() with access_ttl=%q unexpected error: %v", tt.value, err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatalf("Validate() with access_ttl=%q error = nil", tt.value)
				}
				if !strings.Contains(err.Error(), "positive duration") {
					t.Errorf("error = %v, want duration message", err)
				}
			}
		})
	}
}

func TestValidate_ErrorMessagesNameFields(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Database.Path = ""
	cfg.Secrets.SuperuserKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"database.path is required", "secrets.superuserkey is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %v, want substring %q", err, want)
		}
	}
}
