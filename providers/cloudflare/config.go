package cloudflare

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultTTL is the default TTL for Cloudflare DNS records.
// Cloudflare's minimum TTL is 60 seconds (1 = "automatic" which is 300).
const DefaultTTL = 300

// Config holds Cloudflare-specific configuration.
type Config struct {
	Token   string // API token (Bearer authentication)
	ZoneID  string // Zone ID (optional if Zone is set)
	Zone    string // Zone name for lookup (used if ZoneID is empty)
	Proxied bool   // Whether to proxy records through Cloudflare (default: false)
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.Token == "" {
		errs = append(errs, "token is required")
	}
	// Either ZoneID or Zone must be set
	if c.ZoneID == "" && c.Zone == "" {
		errs = append(errs, "zone_id or zone is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("cloudflare config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LoadConfigFromMap builds a Config from provider settings.
//
// Supported keys:
//   - token: API token (required; token_file reads it from a file instead)
//   - zone_id: Zone ID (optional if zone is set)
//   - zone: Zone name for lookup (optional if zone_id is set)
//   - proxied: Enable Cloudflare proxy (optional, defaults to false)
func LoadConfigFromMap(settings map[string]string) (*Config, error) {
	config := &Config{
		Token:  settings["token"],
		ZoneID: settings["zone_id"],
		Zone:   settings["zone"],
	}

	// Docker secrets pattern: token_file takes precedence over token.
	if path := settings["token_file"]; path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading token_file %s: %w", path, err)
		}
		config.Token = strings.TrimSpace(string(content))
	}

	if proxiedStr := settings["proxied"]; proxiedStr != "" {
		proxied, err := strconv.ParseBool(proxiedStr)
		if err != nil {
			return nil, fmt.Errorf("invalid proxied value %q: %w", proxiedStr, err)
		}
		config.Proxied = proxied
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
