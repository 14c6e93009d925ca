package courseapp

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestConfigValidateEnums(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secret",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "missing secret",
			mutate: func(c *Config) {
				c.JWT.Secret = nil
			},
			wantValid: false,
		},
		{
			name: "short secret",
			mutate: func(c *Config) {
				c.JWT.Secret = []byte("too-short")
			},
			wantValid: false,
		},
		{
			name: "jwt leeway valid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 45 * time.Second
			},
			wantValid: true,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "jwt signing hs512 valid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "hs512"
			},
			wantValid: true,
		},
		{
			name: "jwt signing invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "zero access ttl",
			mutate: func(c *Config) {
				c.JWT.AccessTTL = 0
			},
			wantValid: false,
		},
		{
			name: "refresh shorter than access",
			mutate: func(c *Config) {
				c.Session.RefreshTTL = time.Minute
			},
			wantValid: false,
		},
		{
			name: "negative session cap",
			mutate: func(c *Config) {
				c.Session.MaxSessionsPerUser = -1
			},
			wantValid: false,
		},
		{
			name: "session cap disabled",
			mutate: func(c *Config) {
				c.Session.MaxSessionsPerUser = 0
			},
			wantValid: true,
		},
		{
			name: "bcrypt cost too high",
			mutate: func(c *Config) {
				c.Password.Cost = 40
			},
			wantValid: false,
		},
		{
			name: "password min length above bcrypt limit",
			mutate: func(c *Config) {
				c.Password.MinLength = 73
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "latency histograms without metrics",
			mutate: func(c *Config) {
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %v", cfg.JWT.AccessTTL)
	}
	if cfg.Session.RefreshTTL != 10*24*time.Hour {
		t.Fatalf("expected 10d refresh ttl, got %v", cfg.Session.RefreshTTL)
	}
	if cfg.Password.Cost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.Password.Cost)
	}
	if cfg.Enrollment.AllowDuplicate {
		t.Fatal("expected duplicate enrollment disabled by default")
	}
}

func TestCloneConfigCopiesSecret(t *testing.T) {
	cfg := validTestConfig()
	out := cloneConfig(cfg)
	out.JWT.Secret[0] = 'X'
	if cfg.JWT.Secret[0] == 'X' {
		t.Fatal("expected cloned secret to be independent")
	}
}
