// Package config handles loading and validation of wgdisco configuration.
package config

import (
	"fmt"
	"path"
	"strings"

	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// Defaults applied when the config file leaves a setting out.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultTTL       = provider.DefaultTTL
)

// Config is the runtime configuration, decoded from YAML or TOML.
type Config struct {
	Logging   LoggingConfig    `yaml:"logging" toml:"logging"`
	Service   ServiceConfig    `yaml:"service" toml:"service"`
	Discovery DiscoveryConfig  `yaml:"discovery" toml:"discovery"`
	Metrics   MetricsConfig    `yaml:"metrics" toml:"metrics"`
	Providers []ProviderConfig `yaml:"providers" toml:"providers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, text
}

// ServiceConfig holds record publication settings.
type ServiceConfig struct {
	// TTL for all published records (default 300).
	TTL int `yaml:"ttl" toml:"ttl"`
}

// DiscoveryConfig holds resolver settings for the discover command.
type DiscoveryConfig struct {
	// Server is the DNS server to query, host or host:port.
	// Empty means use the system resolver configuration.
	Server string `yaml:"server" toml:"server"`

	// TimeoutSeconds bounds each DNS query.
	TimeoutSeconds int `yaml:"timeout_seconds" toml:"timeout_seconds"`

	// SkipInvalid makes discovery log and skip malformed nodes
	// instead of failing the whole run.
	SkipInvalid bool `yaml:"skip_invalid" toml:"skip_invalid"`
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	// TextfilePath, when set, makes commands write Prometheus metrics
	// in textfile-collector format to this path on exit.
	TextfilePath string `yaml:"textfile_path" toml:"textfile_path"`
}

// ProviderConfig describes one DNS provider instance.
type ProviderConfig struct {
	// Name uniquely identifies this instance, e.g. "home-bind".
	Name string `yaml:"name" toml:"name"`

	// Type selects the implementation: rfc2136, cloudflare, zonefile.
	Type string `yaml:"type" toml:"type"`

	// Domains are glob patterns this instance serves, e.g. "*.example.com".
	// A bare zone name also matches the zone apex. Empty means match all.
	Domains []string `yaml:"domains" toml:"domains"`

	// Settings are implementation-specific, passed to the provider factory.
	Settings map[string]string `yaml:"settings" toml:"settings"`
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	var errs []string

	if c.Service.TTL < 0 {
		errs = append(errs, "service.ttl must be non-negative")
	}
	if c.Discovery.TimeoutSeconds < 0 {
		errs = append(errs, "discovery.timeout_seconds must be non-negative")
	}

	seen := make(map[string]bool)
	for i, p := range c.Providers {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("providers[%d]: name is required", i))
		}
		if p.Type == "" {
			errs = append(errs, fmt.Sprintf("providers[%d]: type is required", i))
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("providers[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
		for _, pattern := range p.Domains {
			if _, err := path.Match(pattern, "probe"); err != nil {
				errs = append(errs, fmt.Sprintf("providers[%d]: bad domain pattern %q", i, pattern))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// TTL returns the configured record TTL or the default.
func (c *Config) TTL() int {
	if c.Service.TTL > 0 {
		return c.Service.TTL
	}
	return DefaultTTL
}

// SelectProvider returns the first provider instance whose domain patterns
// match the given domain. Declaration order in the file decides ties.
func (c *Config) SelectProvider(domain string) (*ProviderConfig, error) {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")

	for i := range c.Providers {
		if c.Providers[i].Matches(domain) {
			return &c.Providers[i], nil
		}
	}
	return nil, fmt.Errorf("no provider configured for domain %s", domain)
}

// Matches reports whether this instance serves the given domain.
func (p *ProviderConfig) Matches(domain string) bool {
	if len(p.Domains) == 0 {
		return true
	}

	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	for _, pattern := range p.Domains {
		pattern = strings.TrimSuffix(strings.ToLower(pattern), ".")
		if matched, err := path.Match(pattern, domain); err == nil && matched {
			return true
		}
		// "*.example.com" should also cover the apex, and a bare zone
		// name should cover its subdomains.
		if after, ok := strings.CutPrefix(pattern, "*."); ok && domain == after {
			return true
		}
		if domain == pattern || strings.HasSuffix(domain, "."+pattern) {
			return true
		}
	}
	return false
}
