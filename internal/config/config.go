// Package config loads leadctl settings from a JSON config file at
// $XDG_CONFIG_HOME/leadctl/config.json, with LEADCTL_* environment
// variables overriding file values.
package config

import (
	"path/filepath"
	"time"
)

type Config struct {
	API     APIConfig
	Client  ClientConfig
	Server  ServerConfig
	Storage StorageConfig
}

type APIConfig struct {
	// BaseURL of the lead API deployment.
	BaseURL string
	// TimeoutSeconds bounds every request the client makes.
	TimeoutSeconds int
}

type ClientConfig struct {
	// PageSize used for lead listings.
	PageSize int
}

type ServerConfig struct {
	// Port for the bundled demo API (leadctl serve).
	Port int
}

type StorageConfig struct {
	// DataDir holds the cookie file and the demo server database.
	DataDir string
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		Client: ClientConfig{
			PageSize: 20,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CookieFile is where the persistent session cookies live.
func (c Config) CookieFile() string {
	return filepath.Join(c.Storage.DataDir, "cookies.json")
}

// Load reads configuration from the config file and environment.
// Environment variables (LEADCTL_*) override file values.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
