// Package config loads service configuration from an optional YAML file
// with environment-variable overrides. Everything is resolved once at
// startup; handlers receive values by injection, never by re-reading
// process state.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/keywarden/keywarden/internal/secretbox"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	DatabasePath string `yaml:"database_path"`

	JWTSecret     string `yaml:"jwt_secret"`
	EncryptionKey string `yaml:"encryption_key"` // hex, 32 bytes

	// ManagedKeysEnabled gates the whole consent surface.
	ManagedKeysEnabled bool `yaml:"managed_keys_enabled"`

	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	CORSOrigins        []string `yaml:"cors_origins"`

	Provider ProviderConfig `yaml:"provider"`
}

// ProviderConfig holds the upstream platform's endpoints and OAuth app.
type ProviderConfig struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Load reads KEYWARDEN_CONFIG (if set) then applies env overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Host:               "127.0.0.1",
		Port:               "8087",
		DatabasePath:       "keywarden.db",
		ManagedKeysEnabled: true,
		RateLimitPerMinute: 60,
	}

	if path := os.Getenv("KEYWARDEN_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		log.Printf("⚠️ KEYWARDEN_JWT_SECRET not set, generated ephemeral secret (sessions reset on restart)")
	}
	if cfg.EncryptionKey == "" {
		cfg.EncryptionKey = secretbox.GenerateKey()
		log.Printf("⚠️ KEYWARDEN_ENCRYPTION_KEY not set, generated ephemeral key (stored configs unreadable after restart)")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Host, "HOST")
	setString(&cfg.Port, "PORT")
	setString(&cfg.DatabasePath, "KEYWARDEN_DB_PATH")
	setString(&cfg.JWTSecret, "KEYWARDEN_JWT_SECRET")
	setString(&cfg.EncryptionKey, "KEYWARDEN_ENCRYPTION_KEY")
	setString(&cfg.Provider.BaseURL, "LLMGRID_BASE_URL")
	setString(&cfg.Provider.ClientID, "LLMGRID_CLIENT_ID")
	setString(&cfg.Provider.ClientSecret, "LLMGRID_CLIENT_SECRET")
	setString(&cfg.Provider.RedirectURL, "LLMGRID_REDIRECT_URL")

	if v := os.Getenv("KEYWARDEN_MANAGED_KEYS_ENABLED"); v != "" {
		cfg.ManagedKeysEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("KEYWARDEN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("KEYWARDEN_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
}

func setString(dst *string, envKey string) {
	if v := os.Getenv(envKey); v != "" {
		*dst = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime errors.
func (c *Config) Validate() error {
	if _, err := secretbox.NewFromHex(c.EncryptionKey); err != nil {
		return fmt.Errorf("encryption_key: %w", err)
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	return nil
}

func randomSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
