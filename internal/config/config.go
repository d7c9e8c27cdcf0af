// Package config loads client configuration from a YAML file, a .env
// file, and environment variables, in that order of increasing
// precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerURL = "http://localhost:8080"
	envServerURL     = "CHATTERM_SERVER_URL"
	envBrokerURL     = "CHATTERM_BROKER_URL"
	envSessionFile   = "CHATTERM_SESSION_FILE"
	envLogLevel      = "CHATTERM_LOG_LEVEL"
)

// Config carries everything the client needs to reach the backend.
type Config struct {
	// ServerURL is the base URL of the REST backend.
	ServerURL string `yaml:"server_url"`
	// BrokerURL is the websocket endpoint for real-time delivery.
	// Derived from ServerURL when empty.
	BrokerURL string `yaml:"broker_url"`
	// SessionFile is where the logged-in identity is persisted.
	SessionFile string `yaml:"session_file"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Load builds the configuration. path may be empty; a missing YAML or
// .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Config{ServerURL: defaultServerURL}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// .env values become environment variables; real environment wins.
	_ = godotenv.Load()

	if v := os.Getenv(envServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(envBrokerURL); v != "" {
		cfg.BrokerURL = v
	}
	if v := os.Getenv(envSessionFile); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Override applies command-line values on top of the loaded
// configuration. Empty arguments leave the loaded values alone; a new
// server URL re-derives the broker endpoint.
func (c *Config) Override(serverURL, sessionFile, logLevel string) error {
	if serverURL != "" && serverURL != c.ServerURL {
		c.ServerURL = serverURL
		c.BrokerURL = ""
	}
	if sessionFile != "" {
		c.SessionFile = sessionFile
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	return c.finish()
}

// finish derives unset fields and validates the result.
func (c *Config) finish() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL is required")
	}

	if c.BrokerURL == "" {
		derived, err := deriveBrokerURL(c.ServerURL)
		if err != nil {
			return err
		}
		c.BrokerURL = derived
	}

	if c.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		c.SessionFile = filepath.Join(home, ".config", "chatterm", "session.json")
	}

	return nil
}

// deriveBrokerURL maps the REST base URL to the backend's websocket
// endpoint (http->ws, https->wss, path /ws).
func deriveBrokerURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = "/ws"

	return u.String(), nil
}
