package config

import (
	"fmt"
	"os"

	"weather_agent_poc/pkg"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration: YAML file first,
// environment variables (secrets, overrides) on top.
type Config struct {
	Model pkg.ModelConfig `yaml:"model"`
	Redis pkg.RedisConfig `yaml:"redis"`
	Log   pkg.LogConfig   `yaml:"log"`
}

// defaults returns the configuration used when config.yaml is absent.
func defaults() *Config {
	return &Config{
		Model: pkg.ModelConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			MaxTokens:   512,
			Temperature: 0.1,
		},
		Redis: pkg.RedisConfig{
			TTLSeconds: 3600,
		},
		Log: pkg.LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

// Load reads the YAML config file (if it exists) and overlays environment
// variables. Missing environment variables leave file values untouched.
func Load(filepath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(filepath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %v", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	return cfg, nil
}
