package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SSH_ADDR", "SSH_HOSTKEY_PATH", "SSH_AUTH_MODE", "SSH_ALLOWLIST_PATH",
		"HTTP_ADDR", "HTTP_API_KEY", "NP_BASE_URL", "NP_API_KEY", "NP_TIMEOUT_SECONDS",
		"CACHE_TTL_SECONDS", "PLACEHOLDER_IMAGE_URL", "CATALOG_SEED_PATH", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// Keep a stray ./.env in the package directory from leaking in.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SSHAddr != ":23234" {
		t.Errorf("expected :23234, got %s", cfg.SSHAddr)
	}
	if cfg.SSHAuthMode != AuthModeAllowlist {
		t.Errorf("expected allowlist mode, got %s", cfg.SSHAuthMode)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("expected HTTP API disabled, got %q", cfg.HTTPAddr)
	}
	if cfg.NPBaseURL != "https://api.novaposhta.ua/v2.0/json/" {
		t.Errorf("unexpected NP base URL %s", cfg.NPBaseURL)
	}
	if cfg.NPTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.NPTimeout)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.CacheTTL)
	}
	if cfg.LogLevel != log.InfoLevel {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SSH_AUTH_MODE", "public")
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("NP_API_KEY", "abc123")
	t.Setenv("CACHE_TTL_SECONDS", "120")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SSHAuthMode != AuthModePublic {
		t.Errorf("expected public mode, got %s", cfg.SSHAuthMode)
	}
	if cfg.HTTPAddr != ":8080" || cfg.NPAPIKey != "abc123" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("expected 2m TTL, got %v", cfg.CacheTTL)
	}
	if cfg.LogLevel != log.DebugLevel {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("NP_API_KEY", "from-environment")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "NP_API_KEY=from-file\nHTTP_API_KEY=admin-key\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("HTTP_API_KEY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.NPAPIKey != "from-environment" {
		t.Errorf("environment should win over the file, got %s", cfg.NPAPIKey)
	}
	if cfg.HTTPAPIKey != "admin-key" {
		t.Errorf("expected key from file, got %q", cfg.HTTPAPIKey)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for a named env file that does not exist")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SSH_AUTH_MODE", "password"},
		{"CACHE_TTL_SECONDS", "soon"},
		{"NP_TIMEOUT_SECONDS", "0"},
		{"LOG_LEVEL", "loud"},
		{"NP_BASE_URL", "ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
