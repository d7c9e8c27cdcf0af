package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrocha/chatterm/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.BrokerURL != "ws://localhost:8080/ws" {
		t.Errorf("BrokerURL = %q, want derived ws URL", cfg.BrokerURL)
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFile is empty, want a default path")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server_url: https://chat.example.com\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerURL != "https://chat.example.com" {
		t.Errorf("ServerURL = %q, want value from file", cfg.ServerURL)
	}
	if cfg.BrokerURL != "wss://chat.example.com/ws" {
		t.Errorf("BrokerURL = %q, want wss derivation for https", cfg.BrokerURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("Load() error = %v, want nil for missing file", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server_url: http://from-file:8080\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CHATTERM_SERVER_URL", "http://from-env:9090")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ServerURL != "http://from-env:9090" {
		t.Errorf("ServerURL = %q, want env value", cfg.ServerURL)
	}
	if cfg.BrokerURL != "ws://from-env:9090/ws" {
		t.Errorf("BrokerURL = %q, want derivation from env value", cfg.BrokerURL)
	}
}

func TestLoad_ExplicitBrokerURLKept(t *testing.T) {
	t.Setenv("CHATTERM_BROKER_URL", "wss://broker.example.com/realtime")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BrokerURL != "wss://broker.example.com/realtime" {
		t.Errorf("BrokerURL = %q, want explicit value preserved", cfg.BrokerURL)
	}
}

func TestOverride_ReDerivesBrokerURL(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := cfg.Override("https://other.example.com", "", "debug"); err != nil {
		t.Fatalf("Override() error = %v", err)
	}

	if cfg.ServerURL != "https://other.example.com" {
		t.Errorf("ServerURL = %q, want flag value", cfg.ServerURL)
	}
	if cfg.BrokerURL != "wss://other.example.com/ws" {
		t.Errorf("BrokerURL = %q, want re-derived value", cfg.BrokerURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_BadScheme(t *testing.T) {
	t.Setenv("CHATTERM_SERVER_URL", "ftp://chat.example.com")

	if _, err := config.Load(""); err == nil {
		t.Error("Load() error = nil, want error for unsupported scheme")
	}
}
