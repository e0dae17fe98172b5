package config

import (
	"strings"
	"testing"
)

func TestLoadDefaultsToDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg := Load()
	if cfg.App.Env != "development" || !cfg.Email.DevMode {
		t.Fatalf("unexpected defaults: env=%q devMode=%v", cfg.App.Env, cfg.Email.DevMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("development defaults should validate: %v", err)
	}
}

func TestValidateRejectsDevDefaultsInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", defaultJWTSecret)
	t.Setenv("VERIFICATION_SECRET", defaultVerificationSecret)
	t.Setenv("EMAIL_DEV_MODE", "true")

	err := Load().Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, key := range []string{"JWT_SECRET", "VERIFICATION_SECRET", "EMAIL_DEV_MODE"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidateAcceptsProductionSettings(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "9f8e7d")
	t.Setenv("VERIFICATION_SECRET", "1a2b3c")
	t.Setenv("EMAIL_DEV_MODE", "false")

	if err := Load().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
