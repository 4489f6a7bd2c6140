// Package config handles CLI configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the Z.ai API key.
const APIKeyEnv = "ZAI_API_KEY"

// Config represents the CLI configuration.
type Config struct {
	// APIKey is used when ZAI_API_KEY is unset. Prefer the environment.
	APIKey        string        `yaml:"api_key,omitempty"`
	DefaultModel  string        `yaml:"default_model"`
	RealtimeModel string        `yaml:"realtime_model,omitempty"`
	BaseURL       string        `yaml:"base_url,omitempty"`
	RealtimeURL   string        `yaml:"realtime_url,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	ToolsDir      string        `yaml:"tools_dir,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.zai/config.yaml
// - Windows: %USERPROFILE%\.zai\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".zai", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE pairs from the given dotenv files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ResolveAPIKey returns ZAI_API_KEY when set, otherwise the configured key.
func (c *Config) ResolveAPIKey() string {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}
	if c == nil {
		return ""
	}
	return c.APIKey
}
