package config

import (
	"path/filepath"
	"testing"
)

// mapBackend is an in-memory Backend for tests.
type mapBackend map[string]any

func (m mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (m mapBackend) SetString(key, val string) error { m[key] = val; return nil }
func (m mapBackend) SetInt(key string, val int) error { m[key] = val; return nil }

func TestDefaults(t *testing.T) {
	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Errorf("API.BaseURL = %q, want http://localhost:8080", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("API.TimeoutSeconds = %d, want 30", cfg.API.TimeoutSeconds)
	}
	if cfg.Client.PageSize != 20 {
		t.Errorf("Client.PageSize = %d, want 20", cfg.Client.PageSize)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestBackendValues(t *testing.T) {
	cfg, err := loadWith(mapBackend{
		"api.base_url":     "https://crm.example.com",
		"client.page_size": 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://crm.example.com" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Client.PageSize != 50 {
		t.Errorf("Client.PageSize = %d, want 50", cfg.Client.PageSize)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("LEADCTL_API_BASE_URL", "https://env.example.com")
	t.Setenv("LEADCTL_CLIENT_PAGE_SIZE", "10")

	cfg, err := loadWith(mapBackend{"api.base_url": "https://file.example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("API.BaseURL = %q, want env value", cfg.API.BaseURL)
	}
	if cfg.Client.PageSize != 10 {
		t.Errorf("Client.PageSize = %d, want 10", cfg.Client.PageSize)
	}
}

func TestInvalidEnvIntKeepsDefault(t *testing.T) {
	t.Setenv("LEADCTL_CLIENT_PAGE_SIZE", "not-a-number")

	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Client.PageSize != 20 {
		t.Errorf("Client.PageSize = %d, want default 20", cfg.Client.PageSize)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	b := newFileBackend(path)
	if err := setKey(b, "api.base_url", "https://crm.example.com"); err != nil {
		t.Fatalf("setKey: %v", err)
	}
	if err := setKey(b, "server.port", "9090"); err != nil {
		t.Fatalf("setKey: %v", err)
	}

	reloaded := newFileBackend(path)
	cfg, err := loadWith(reloaded)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.API.BaseURL != "https://crm.example.com" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
}

func TestSetKeyUnknown(t *testing.T) {
	if err := setKey(mapBackend{}, "bogus.key", "x"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
