package zonefile

import (
	"fmt"
	"strings"

	"gitlab.bluewillows.net/root/wgdisco/pkg/sshutil"
)

// Config holds zonefile provider configuration.
type Config struct {
	// Path is the zone file location on the remote host (required).
	Path string

	// Zone is the zone origin, e.g. "example.com." (required).
	Zone string

	// ReloadCommand is run on the remote host after the zone file changes,
	// e.g. "rndc reload example.com" or "knotc zone-reload example.com".
	// Optional; without it the server picks up changes on its own schedule.
	ReloadCommand string

	// SSH is the connection configuration for the remote host.
	SSH *sshutil.Config
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	var errs []string

	if c.Path == "" {
		errs = append(errs, "path is required")
	}
	if c.Zone == "" {
		errs = append(errs, "zone is required")
	}
	if c.SSH == nil {
		errs = append(errs, "ssh configuration is required")
	} else if err := c.SSH.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("zonefile config validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LoadConfigFromMap builds a Config from provider settings.
//
// Provider keys: path, zone, reload_command. SSH connection keys carry an
// ssh_ prefix (ssh_host, ssh_user, ssh_key_file, ssh_password, ...) and
// are passed through to sshutil.LoadConfigFromMap.
func LoadConfigFromMap(settings map[string]string) (*Config, error) {
	sshSettings := make(map[string]string)
	for key, value := range settings {
		if rest, ok := strings.CutPrefix(key, "ssh_"); ok {
			sshSettings[rest] = value
		}
	}

	sshConfig, err := sshutil.LoadConfigFromMap(sshSettings)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Path:          settings["path"],
		Zone:          settings["zone"],
		ReloadCommand: settings["reload_command"],
		SSH:           sshConfig,
	}

	if config.Zone != "" && !strings.HasSuffix(config.Zone, ".") {
		config.Zone += "."
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
