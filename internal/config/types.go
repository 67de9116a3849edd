package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so config.yaml can spell intervals as plain
// strings ("60s", "5m") instead of a raw integer count of nanoseconds —
// yaml.v3 has no built-in support for time.Duration.
type Duration time.Duration

// UnmarshalYAML parses a scalar duration string via time.ParseDuration.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the wrapped value as a time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Config holds all gateway configuration.
type Config struct {
	Name    string        `yaml:"name"`
	Version string        `yaml:"version"`
	Gateway GatewayConfig `yaml:"gateway"`
	Backend BackendConfig `yaml:"backend"`
	Stats   StatsConfig   `yaml:"stats"`
	Auth    AuthConfig    `yaml:"auth"`
}

// GatewayConfig holds HTTP server and persistence settings.
type GatewayConfig struct {
	Port             int        `yaml:"port"`
	PublicURL        string     `yaml:"public_url"`
	LogLevel         string     `yaml:"log_level"`
	CORS             CORSConfig `yaml:"cors"`
	SnapshotPath     string     `yaml:"snapshot_path"`
	SnapshotInterval Duration   `yaml:"snapshot_interval"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// BackendConfig points the executor at the skill backend services (the
// executor's collaborators, out of scope themselves per §1).
type BackendConfig struct {
	ScreenshotURL string `yaml:"screenshot_url"`
	PDFURL        string `yaml:"pdf_url"`
	AIProviderURL string `yaml:"ai_provider_url"`
	AIProviderKey string `yaml:"ai_provider_key"`
}

// StatsConfig gates the detailed /stats view behind a shared secret.
type StatsConfig struct {
	APIKey string `yaml:"api_key"`
}

// AuthConfig configures the optional wallet-assertion JWT verifier. When no
// keys are configured the verifier is simply unavailable and callers fall
// back to the unauthenticated sessionWallet metadata hint.
type AuthConfig struct {
	Issuer   string          `yaml:"issuer"`
	Audience string          `yaml:"audience"`
	Keys     []AuthKeyConfig `yaml:"keys"`
}

// AuthKeyConfig names one ES256 public key file by its JWT kid.
type AuthKeyConfig struct {
	KeyID         string `yaml:"kid"`
	PublicKeyPath string `yaml:"public_key_path"`
}
