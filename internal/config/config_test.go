package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("FIREBASE_PROJECT_ID", "eatlens-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.StoreDriver != StoreDriverFirestore {
		t.Errorf("expected firestore driver by default, got %q", cfg.StoreDriver)
	}
	if cfg.AdminEmail != "admin@eatlens.com" {
		t.Errorf("unexpected admin email %q", cfg.AdminEmail)
	}
	if cfg.ExpirySweepInterval != time.Hour {
		t.Errorf("expected 1h sweep interval, got %s", cfg.ExpirySweepInterval)
	}
	if cfg.RateLimitRefillInterval != 2*time.Second {
		t.Errorf("expected 2s refill interval, got %s", cfg.RateLimitRefillInterval)
	}
	if GetConfig() != cfg {
		t.Error("GetConfig should return the loaded config")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("FIREBASE_PROJECT_ID", "eatlens-test")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_CAPACITY", "5")
	t.Setenv("REVIEWS_CACHE_TTL", "30s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.RateLimitCapacity != 5 {
		t.Errorf("expected capacity 5, got %d", cfg.RateLimitCapacity)
	}
	if cfg.ReviewsCacheTTL != 30*time.Second {
		t.Errorf("expected 30s cache TTL, got %s", cfg.ReviewsCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		FirebaseProjectID:       "p",
		StoreDriver:             StoreDriverFirestore,
		AdminEmail:              "admin@eatlens.com",
		RateLimitEnabled:        true,
		RateLimitCapacity:       10,
		RateLimitRefillInterval: time.Second,
		ExpirySweepInterval:     time.Minute,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing project", func(c *Config) { c.FirebaseProjectID = "" }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }},
		{"missing admin", func(c *Config) { c.AdminEmail = "" }},
		{"zero capacity", func(c *Config) { c.RateLimitCapacity = 0 }},
		{"zero sweep", func(c *Config) { c.ExpirySweepInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestMailEnabled(t *testing.T) {
	c := Config{SMTPHost: "smtp.example.com", SMTPUser: "u"}
	if c.MailEnabled() {
		t.Fatal("mail should be disabled without a password")
	}
	c.SMTPPass = "p"
	if !c.MailEnabled() {
		t.Fatal("mail should be enabled")
	}
}
