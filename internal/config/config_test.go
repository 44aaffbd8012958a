package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MODAL_BASE_URL", "http://llm.local/generate")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "memory" {
		t.Errorf("Database.Driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Auth.TokenExpiry != 24*time.Hour {
		t.Errorf("Auth.TokenExpiry = %v, want 24h", cfg.Auth.TokenExpiry)
	}
	if cfg.Quota.StrictAdmission {
		t.Error("Quota.StrictAdmission should default to false")
	}
	if cfg.Quota.TTSComputeEstimate != 5 {
		t.Errorf("Quota.TTSComputeEstimate = %d, want 5", cfg.Quota.TTSComputeEstimate)
	}
	if cfg.BillingEnabled() {
		t.Error("BillingEnabled() should be false without STRIPE_SECRET_KEY")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 8787},
			Database:   DatabaseConfig{Driver: "memory"},
			Auth:       AuthConfig{JWTSecret: "s", TokenExpiry: time.Hour},
			Generation: GenerationConfig{Provider: "modal", BaseURL: "http://x"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "openai without key", mutate: func(c *Config) { c.Generation.Provider = "openai" }, wantErr: true},
		{name: "modal without url", mutate: func(c *Config) { c.Generation.BaseURL = "" }, wantErr: true},
		{name: "billing without webhook secret", mutate: func(c *Config) { c.Billing.StripeAPIKey = "sk_test" }, wantErr: true},
		{name: "billing with webhook secret", mutate: func(c *Config) {
			c.Billing.StripeAPIKey = "sk_test"
			c.Billing.WebhookSecret = "whsec_test"
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_BillingWithoutWebhookSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MODAL_BASE_URL", "http://llm.local/generate")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when billing is enabled without a webhook secret")
	}
}
