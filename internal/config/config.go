// Package config handles environment variable parsing and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// AuthMode represents the SSH authentication mode.
type AuthMode string

const (
	AuthModeAllowlist AuthMode = "allowlist"
	AuthModePublic    AuthMode = "public"
)

// Config holds all application configuration.
type Config struct {
	// SSH server settings
	SSHAddr        string
	SSHHostKeyPath string
	SSHAuthMode    AuthMode
	AllowlistPath  string

	// Admin HTTP API; disabled when HTTPAddr is empty
	HTTPAddr   string
	HTTPAPIKey string

	// Nova Poshta API settings
	NPBaseURL string
	NPAPIKey  string
	NPTimeout time.Duration

	// Shipping reference data cache
	CacheTTL time.Duration

	// Catalog
	PlaceholderImageURL string
	CatalogSeedPath     string

	LogLevel log.Level
}

// Load reads configuration from environment variables with defaults.
// Variables from the given .env files (or ./.env when none are named) are
// added to the environment first; variables already set take precedence.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	cfg := &Config{
		SSHAddr:             getEnv("SSH_ADDR", ":23234"),
		SSHHostKeyPath:      getEnv("SSH_HOSTKEY_PATH", "./.ssh_host_ed25519_key"),
		SSHAuthMode:         AuthMode(getEnv("SSH_AUTH_MODE", "allowlist")),
		AllowlistPath:       getEnv("SSH_ALLOWLIST_PATH", "./allowlist_authorized_keys"),
		HTTPAddr:            os.Getenv("HTTP_ADDR"),
		HTTPAPIKey:          os.Getenv("HTTP_API_KEY"),
		NPBaseURL:           getEnv("NP_BASE_URL", "https://api.novaposhta.ua/v2.0/json/"),
		NPAPIKey:            os.Getenv("NP_API_KEY"),
		PlaceholderImageURL: getEnv("PLACEHOLDER_IMAGE_URL", "https://via.placeholder.com/300x300.png?text=No+Image"),
		CatalogSeedPath:     os.Getenv("CATALOG_SEED_PATH"),
	}

	var err error
	if cfg.NPTimeout, err = getSeconds("NP_TIMEOUT_SECONDS", 15); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getSeconds("CACHE_TTL_SECONDS", 3600); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	// Validate auth mode
	if cfg.SSHAuthMode != AuthModeAllowlist && cfg.SSHAuthMode != AuthModePublic {
		return nil, errors.New("SSH_AUTH_MODE must be 'allowlist' or 'public'")
	}

	if u, err := url.Parse(cfg.NPBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New("NP_BASE_URL must be an http(s) URL")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getSeconds(key string, defaultValue int) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(n) * time.Second, nil
}
