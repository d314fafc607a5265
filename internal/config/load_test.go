package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "wgdisco.yaml", `
logging:
  level: debug
  format: json
service:
  ttl: 120
discovery:
  server: 192.0.2.53:53
  skip_invalid: true
providers:
  - name: home
    type: rfc2136
    domains:
      - "*.home.example.com"
    settings:
      server: ns1.home.example.com
      zone: home.example.com
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.TTL() != 120 {
		t.Errorf("TTL() = %d, want 120", cfg.TTL())
	}
	if !cfg.Discovery.SkipInvalid {
		t.Error("Discovery.SkipInvalid = false")
	}
	if len(cfg.Providers) != 1 {
		t.Fatalf("Providers = %+v", cfg.Providers)
	}
	if cfg.Providers[0].Settings["zone"] != "home.example.com" {
		t.Errorf("Settings = %v", cfg.Providers[0].Settings)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "wgdisco.toml", `
[logging]
level = "warn"

[service]
ttl = 600

[[providers]]
name = "public"
type = "cloudflare"
domains = ["*.example.com"]

[providers.settings]
token = "tok"
zone = "example.com"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	if cfg.Service.TTL != 600 {
		t.Errorf("TTL = %d", cfg.Service.TTL)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].Settings["token"] != "tok" {
		t.Errorf("Providers = %+v", cfg.Providers)
	}
}

func TestLoadInterpolatesEnvVars(t *testing.T) {
	t.Setenv("WGDISCO_TEST_ZONE", "env.example.com")

	path := writeConfig(t, "wgdisco.yaml", `
providers:
  - name: home
    type: rfc2136
    settings:
      server: ns1.example.com
      zone: ${WGDISCO_TEST_ZONE}
      key: ${WGDISCO_TEST_UNSET:-fallback}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	settings := cfg.Providers[0].Settings
	if settings["zone"] != "env.example.com" {
		t.Errorf("zone = %q, want interpolated value", settings["zone"])
	}
	if settings["key"] != "fallback" {
		t.Errorf("key = %q, want default value", settings["key"])
	}
}

func TestLoadResolvesSecretFiles(t *testing.T) {
	secretPath := filepath.Join(t.TempDir(), "tsig-secret")
	if err := os.WriteFile(secretPath, []byte("c2VjcmV0\n"), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}

	path := writeConfig(t, "wgdisco.yaml", `
providers:
  - name: home
    type: rfc2136
    settings:
      server: ns1.example.com
      zone: example.com
      tsig_secret_file: `+secretPath+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.Providers[0].Settings["tsig_secret"]; got != "c2VjcmV0" {
		t.Errorf("tsig_secret = %q, want expanded secret", got)
	}
}

func TestLoadInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, "wgdisco.yaml", `
providers:
  - type: rfc2136
`)

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for provider without name")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/wgdisco.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
