package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := writeTempConfig(t, "load.yaml", `
target: http://example.com/health
total_requests: 5000
concurrency: 25
max_retries: 2
timeout: 500ms
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.Target != "http://example.com/health" {
		t.Errorf("Target = %q", cfg.Target)
	}
	if cfg.TotalRequests != 5000 || cfg.Concurrency != 25 || cfg.MaxRetries != 2 {
		t.Errorf("numbers = %d/%d/%d, want 5000/25/2",
			cfg.TotalRequests, cfg.Concurrency, cfg.MaxRetries)
	}
	if cfg.Timeout != 500*time.Millisecond {
		t.Errorf("Timeout = %v, want 500ms", cfg.Timeout)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	path := writeTempConfig(t, "load.json", `{
		"target": "https://example.com",
		"total_requests": 100,
		"concurrency": 10,
		"timeout": "2s"
	}`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.Target != "https://example.com" || cfg.Timeout != 2*time.Second {
		t.Errorf("got %+v", cfg)
	}
	// Absent fields stay zero so the caller's defaults apply.
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
}

func TestLoadConfigFileJSONC(t *testing.T) {
	path := writeTempConfig(t, "load.jsonc", `{
		// Smoke test profile.
		"target": "http://localhost:8080",
		"concurrency": 5, // keep it gentle
	}`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}
	if cfg.Target != "http://localhost:8080" || cfg.Concurrency != 5 {
		t.Errorf("got %+v", cfg)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "load.toml", "target = 'x'"},
		{"bad yaml", "load.yaml", "target: [unclosed"},
		{"bad json", "load.json", "{not json"},
		{"bad timeout", "load.yaml", "target: http://x\ntimeout: fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, tt.file, tt.content)
			if _, err := LoadConfigFile(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
