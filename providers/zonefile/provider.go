// Package zonefile implements the wgdisco provider interface against an
// RFC 1035 zone file on a remote host, edited over SFTP. After each change
// the file is swapped into place atomically, the SOA serial is bumped, and
// an optional reload command tells the server to pick it up.
package zonefile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/wgdisco/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
	"gitlab.bluewillows.net/root/wgdisco/pkg/sshutil"
)

// zoneFileMode is the permission mode for rewritten zone files.
const zoneFileMode = 0o644

// Provider implements provider.Provider over a remote zone file.
type Provider struct {
	name   string
	config *Config
	logger *slog.Logger

	ssh    *sshutil.Client
	fs     sshutil.FileSystem
	runner sshutil.CommandRunner

	mu        sync.Mutex
	connected bool
	now       func() time.Time
}

// ProviderOption is a functional option for configuring the Provider.
type ProviderOption func(*Provider)

// WithProviderLogger sets a custom logger for the provider.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFileSystem injects a file system implementation, bypassing SFTP.
func WithFileSystem(fs sshutil.FileSystem) ProviderOption {
	return func(p *Provider) {
		p.fs = fs
		p.connected = true
	}
}

// WithCommandRunner injects a command runner implementation, bypassing SSH.
func WithCommandRunner(runner sshutil.CommandRunner) ProviderOption {
	return func(p *Provider) {
		p.runner = runner
	}
}

// New creates a new zonefile provider instance.
func New(name string, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		config: config,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Factory returns a provider.Factory creating zonefile instances.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		cfg, err := LoadConfigFromMap(config)
		if err != nil {
			return nil, err
		}
		return New(name, cfg)
	}
}

// Name returns the provider instance name.
func (p *Provider) Name() string {
	return p.name
}

// Type returns "zonefile".
func (p *Provider) Type() string {
	return "zonefile"
}

// Close tears down the SFTP session and SSH connection.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sfs, ok := p.fs.(*sshutil.SFTPFileSystem); ok {
		_ = sfs.Close()
	}
	if p.ssh != nil {
		return p.ssh.Close()
	}
	return nil
}

// ensureConnected establishes the SSH connection and SFTP session on
// first use. Injected file systems skip this entirely.
func (p *Provider) ensureConnected(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return nil
	}

	ssh, err := sshutil.NewClient(p.config.SSH, sshutil.WithLogger(p.logger))
	if err != nil {
		return err
	}
	if err := ssh.Connect(ctx); err != nil {
		return err
	}

	sfs := sshutil.NewSFTPFileSystem(ssh, p.logger)
	if err := sfs.Connect(); err != nil {
		_ = ssh.Close()
		return err
	}

	p.ssh = ssh
	p.fs = sfs
	if p.runner == nil {
		p.runner = sshutil.NewSSHCommandRunner(ssh, p.logger)
	}
	p.connected = true
	return nil
}

// Ping checks that the remote host is reachable and the zone file exists.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.ensureConnected(ctx); err != nil {
		return provider.WrapError(p.name, "ping", err)
	}
	if _, err := p.fs.Stat(p.config.Path); err != nil {
		return provider.WrapError(p.name, "ping", err)
	}
	return nil
}

// load reads and parses the remote zone file.
func (p *Provider) load(ctx context.Context) (*zone, error) {
	if err := p.ensureConnected(ctx); err != nil {
		return nil, err
	}

	data, err := p.fs.ReadFile(p.config.Path)
	if err != nil {
		return nil, err
	}
	return parseZone(data, p.config.Zone)
}

// store bumps the serial, writes the zone to a temp file, swaps it into
// place, and runs the reload command if one is configured.
func (p *Provider) store(ctx context.Context, z *zone) error {
	z.bumpSerial(p.now())

	tmpPath := p.config.Path + ".tmp"
	if err := p.fs.WriteFile(tmpPath, z.render(), zoneFileMode); err != nil {
		return err
	}
	if err := p.fs.Rename(tmpPath, p.config.Path); err != nil {
		return err
	}

	if p.config.ReloadCommand != "" && p.runner != nil {
		if err := p.runner.Run(ctx, p.config.ReloadCommand); err != nil {
			return fmt.Errorf("zone written but reload failed: %w", err)
		}
	}

	return nil
}

// toRR converts a content string to a dns.RR for this zone.
func (p *Provider) toRR(name string, qtype uint16, content string, ttl int) (dns.RR, error) {
	record := dnsupdate.Record{
		Name:    dns.Fqdn(name),
		Type:    qtype,
		TTL:     uint32(ttl),
		Content: content,
	}
	return record.ToRR()
}

// List returns the content strings for (name, rtype).
// An absent record set yields an empty slice, not an error.
func (p *Provider) List(ctx context.Context, name string, rtype provider.RecordType) ([]string, error) {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}

	z, err := p.load(ctx)
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}

	matches := z.find(name, qtype)
	contents := make([]string, 0, len(matches))
	for _, rr := range matches {
		content, err := dnsupdate.ContentFromRR(rr)
		if err != nil {
			return nil, provider.WrapError(p.name, "list", err)
		}
		contents = append(contents, content)
	}
	return contents, nil
}

// Create adds a record set with a single value.
func (p *Provider) Create(ctx context.Context, name string, rtype provider.RecordType, content string, ttl int) error {
	return p.mutate(ctx, "create", name, rtype, func(z *zone, qtype uint16) error {
		rr, err := p.toRR(name, qtype, content, ttl)
		if err != nil {
			return err
		}
		z.add(rr)
		return nil
	})
}

// Update replaces the full record set with the given contents.
func (p *Provider) Update(ctx context.Context, name string, rtype provider.RecordType, contents []string, ttl int) error {
	return p.mutate(ctx, "update", name, rtype, func(z *zone, qtype uint16) error {
		z.remove(name, qtype)
		for _, content := range contents {
			rr, err := p.toRR(name, qtype, content, ttl)
			if err != nil {
				return err
			}
			z.add(rr)
		}
		return nil
	})
}

// Delete removes the record set. Deleting an absent set succeeds without
// rewriting the file.
func (p *Provider) Delete(ctx context.Context, name string, rtype provider.RecordType) error {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	z, err := p.load(ctx)
	if err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	if z.remove(name, qtype) == 0 {
		return nil
	}

	if err := p.store(ctx, z); err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	p.logger.Info("record deleted",
		slog.String("provider", p.name),
		slog.String("name", name),
		slog.String("type", string(rtype)),
	)
	return nil
}

// mutate runs a read-modify-write cycle on the zone file.
func (p *Provider) mutate(ctx context.Context, op, name string, rtype provider.RecordType, fn func(*zone, uint16) error) error {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return provider.WrapError(p.name, op, err)
	}

	z, err := p.load(ctx)
	if err != nil {
		return provider.WrapError(p.name, op, err)
	}

	if err := fn(z, qtype); err != nil {
		return provider.WrapError(p.name, op, err)
	}

	if err := p.store(ctx, z); err != nil {
		return provider.WrapError(p.name, op, err)
	}

	p.logger.Info("zone file updated",
		slog.String("provider", p.name),
		slog.String("operation", op),
		slog.String("name", name),
		slog.String("type", string(rtype)),
	)
	return nil
}

// Verify interface compliance at compile time.
var _ provider.Provider = (*Provider)(nil)
