package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/surge/internal/loadgen"
)

// fileConfig mirrors loadgen.Config with file-friendly field types. Timeout
// is a duration string ("500ms", "2s") so config files stay readable.
type fileConfig struct {
	Target        string `yaml:"target" json:"target"`
	TotalRequests int    `yaml:"total_requests" json:"total_requests"`
	Concurrency   int    `yaml:"concurrency" json:"concurrency"`
	MaxRetries    int    `yaml:"max_retries" json:"max_retries"`
	Timeout       string `yaml:"timeout" json:"timeout"`
}

// LoadConfigFile reads a run configuration from a YAML, JSON, or JSONC file.
// Absent fields keep their zero value so flag defaults can fill them in.
func LoadConfigFile(path string) (loadgen.Config, error) {
	var cfg loadgen.Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}

	cfg.Target = fc.Target
	cfg.TotalRequests = fc.TotalRequests
	cfg.Concurrency = fc.Concurrency
	cfg.MaxRetries = fc.MaxRetries
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid timeout %q: %w", fc.Timeout, err)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}
