// Package sshutil provides SSH and SFTP plumbing for providers that manage
// DNS data as files on a remote host (zone files, hosts files) and need to
// run a reload command afterwards.
package sshutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default SSH client configuration values.
const (
	// DefaultPort is the standard SSH port.
	DefaultPort = 22

	// DefaultTimeout is the default connection timeout.
	DefaultTimeout = 30 * time.Second
)

// Config holds SSH connection configuration.
type Config struct {
	// Host is the SSH server hostname or IP address (required).
	Host string

	// Port is the SSH server port (default: 22).
	Port int

	// User is the SSH username (required).
	User string

	// KeyFile is the path to the SSH private key file.
	// One of KeyFile, KeyData, or Password must be provided.
	KeyFile string

	// KeyData is the SSH private key content directly.
	// Useful when the key arrives via environment or Docker secret.
	KeyData string

	// KeyPassphrase is the passphrase for encrypted SSH keys (optional).
	KeyPassphrase string

	// Password is the SSH password. Key-based auth is preferred.
	Password string

	// KnownHostsFile is the path to a known_hosts file for host key
	// verification. When empty, host keys are NOT verified.
	KnownHostsFile string

	// Timeout is the SSH connection timeout (default: 30s).
	Timeout time.Duration
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "host is required")
	}
	if c.User == "" {
		errs = append(errs, "user is required")
	}
	if c.KeyFile == "" && c.KeyData == "" && c.Password == "" {
		errs = append(errs, "at least one authentication method required (key_file, key_data, or password)")
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 0 and 65535")
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("ssh config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address returns the SSH server address in host:port format.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// GetTimeout returns the configured timeout or the default.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// LoadConfigFromMap builds a Config from provider settings.
//
// Supported keys: host, port, user, key_file, key_data, key_passphrase,
// password, known_hosts, timeout (seconds). The key_data_file and
// password_file variants read the value from a file (Docker secrets).
func LoadConfigFromMap(settings map[string]string) (*Config, error) {
	config := &Config{
		Host:           settings["host"],
		User:           settings["user"],
		KeyFile:        settings["key_file"],
		KeyData:        settings["key_data"],
		KeyPassphrase:  settings["key_passphrase"],
		Password:       settings["password"],
		KnownHostsFile: settings["known_hosts"],
		Port:           DefaultPort,
	}

	for key, dst := range map[string]*string{
		"key_data_file": &config.KeyData,
		"password_file": &config.Password,
	} {
		if path := settings[key]; path != "" {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s %s: %w", key, path, err)
			}
			*dst = strings.TrimSpace(string(content))
		}
	}

	if portStr := settings["port"]; portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port value %q: %w", portStr, err)
		}
		config.Port = port
	}

	if timeoutStr := settings["timeout"]; timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w", timeoutStr, err)
		}
		config.Timeout = time.Duration(timeout) * time.Second
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
