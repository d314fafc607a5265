package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable
// values. Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads, interpolates, parses, and validates a configuration file.
// The format is chosen by extension: .toml is TOML, everything else YAML.
// Environment variables in ${VAR} format are interpolated before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	interpolated := InterpolateEnvVars(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal([]byte(interpolated), &cfg); err != nil {
			return nil, fmt.Errorf("parsing TOML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}

	cfg.resolveSecretFiles()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveSecretFiles expands *_file keys in provider settings by reading
// the referenced file (Docker secrets pattern). The original key is kept
// so provider loaders with native *_file support behave the same either
// way; expansion here covers loaders without it.
func (c *Config) resolveSecretFiles() {
	for i := range c.Providers {
		settings := c.Providers[i].Settings
		for key, value := range settings {
			base, ok := strings.CutSuffix(key, "_file")
			if !ok || value == "" {
				continue
			}
			if _, exists := settings[base]; exists {
				continue
			}
			content, err := os.ReadFile(value)
			if err != nil {
				continue // provider loader reports the missing file
			}
			settings[base] = strings.TrimSpace(string(content))
		}
	}
}
