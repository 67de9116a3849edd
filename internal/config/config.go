package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration file, then applies environment
// variable overrides per spec.md §6.5.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("PUBLIC_URL"); v != "" {
		cfg.Gateway.PublicURL = v
	}
	if v := os.Getenv("STATS_API_KEY"); v != "" {
		cfg.Stats.APIKey = v
	}
	if v := os.Getenv("BACKEND_SCREENSHOT_URL"); v != "" {
		cfg.Backend.ScreenshotURL = v
	}
	if v := os.Getenv("BACKEND_PDF_URL"); v != "" {
		cfg.Backend.PDFURL = v
	}
	if v := os.Getenv("AI_PROVIDER_URL"); v != "" {
		cfg.Backend.AIProviderURL = v
	}
	if v := os.Getenv("AI_PROVIDER_KEY"); v != "" {
		cfg.Backend.AIProviderKey = v
	}
}

func validate(cfg *Config) error {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 4002
	}
	if cfg.Gateway.Port < 1 || cfg.Gateway.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Gateway.Port)
	}
	if cfg.Gateway.SnapshotPath == "" {
		cfg.Gateway.SnapshotPath = "gateway-snapshot.json"
	}
	if cfg.Gateway.SnapshotInterval <= 0 {
		cfg.Gateway.SnapshotInterval = Duration(60 * time.Second)
	}
	return nil
}
