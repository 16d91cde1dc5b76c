package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/nestlock/nestlock/internal/engine"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	TTLock      TTLockConfig      `yaml:"ttlock"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Store       StoreConfig       `yaml:"store"`
	Audit       AuditConfig       `yaml:"audit"`
	Rules       []engine.Rule     `yaml:"rules"`
	Sweep       SweepConfig       `yaml:"sweep"`
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr"`

	// AdminSigningKey is the HMAC secret used to verify admin tokens.
	AdminSigningKey string `yaml:"admin_signing_key"`
}

// TTLockConfig holds the smart-lock vendor credentials.
type TTLockConfig struct {
	// BaseURL of the vendor API. Defaults to the EU cluster when empty.
	BaseURL string `yaml:"base_url"`

	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Username and Password of the lock-owner account used for the
	// password credential grant.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// CacheTTL bounds how long an access token is reused before a fresh
	// exchange is forced. Zero means the built-in default.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	Timeout time.Duration `yaml:"timeout"`
}

func (c *TTLockConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// MarketplaceConfig holds the Integration API settings.
type MarketplaceConfig struct {
	BaseURL string `yaml:"base_url"`

	// APIToken is the service-account bearer token.
	APIToken string `yaml:"api_token"`

	Timeout time.Duration `yaml:"timeout"`
}

func (c *MarketplaceConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	return nil
}

// StoreConfig selects and configures the grant-record store driver.
type StoreConfig struct {
	Type   string         `yaml:"type"`    // e.g., "memory", "sqlite"
	Config map[string]any `yaml:",inline"` // Capture remaining fields
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
}

// SweepConfig controls the background sweep of expired grants.
type SweepConfig struct {
	// Interval between sweep runs. Zero disables the sweep task.
	Interval time.Duration `yaml:"interval"`

	// Retention keeps revoked records around for this long before purge.
	Retention time.Duration `yaml:"retention"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment so they can stay
// out of the config file.
func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		"TTLOCK_CLIENT_ID":           &c.TTLock.ClientID,
		"TTLOCK_CLIENT_SECRET":       &c.TTLock.ClientSecret,
		"TTLOCK_USERNAME":            &c.TTLock.Username,
		"TTLOCK_PASSWORD":            &c.TTLock.Password,
		"MARKETPLACE_API_TOKEN":      &c.Marketplace.APIToken,
		"NESTLOCK_ADMIN_SIGNING_KEY": &c.Server.AdminSigningKey,
	}
	for key, dest := range overrides {
		if v := os.Getenv(key); v != "" {
			*dest = v
		}
	}
}

func (c *Config) Validate() error {
	if err := c.TTLock.Validate(); err != nil {
		return fmt.Errorf("validating ttlock config: %w", err)
	}
	if err := c.Marketplace.Validate(); err != nil {
		return fmt.Errorf("validating marketplace config: %w", err)
	}

	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}

	// Rule expressions must compile; catching that here beats failing on
	// the first booking.
	if _, err := engine.New(c.Rules); err != nil {
		return fmt.Errorf("validating rules: %w", err)
	}

	return nil
}
