package loadgen

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Target:        "http://localhost:8080/health",
		TotalRequests: 1000,
		Concurrency:   10,
		MaxRetries:    3,
		Timeout:       time.Second,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"valid https", func(c *Config) { c.Target = "https://example.com" }, false},
		{"empty target", func(c *Config) { c.Target = "" }, true},
		{"bad scheme", func(c *Config) { c.Target = "ftp://example.com" }, true},
		{"no host", func(c *Config) { c.Target = "http://" }, true},
		{"not a url", func(c *Config) { c.Target = "://nope" }, true},
		{"zero requests", func(c *Config) { c.TotalRequests = 0 }, true},
		{"too many requests", func(c *Config) { c.TotalRequests = MaxTotalRequests + 1 }, true},
		{"max requests ok", func(c *Config) { c.TotalRequests = MaxTotalRequests }, false},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, true},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, true},
		{"too much concurrency", func(c *Config) { c.Concurrency = MaxConcurrency + 1 }, true},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, true},
		{"single attempt ok", func(c *Config) { c.MaxRetries = 1 }, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
