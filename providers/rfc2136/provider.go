// Package rfc2136 implements the wgdisco provider interface over RFC 2136
// Dynamic DNS updates. Works with BIND, Knot, PowerDNS and any other
// server accepting standard UPDATE messages, with optional TSIG.
package rfc2136

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/wgdisco/pkg/dnsupdate"
	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// Provider implements provider.Provider for RFC 2136 servers.
type Provider struct {
	name   string
	zone   string
	client *dnsupdate.Client
	logger *slog.Logger
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

// New creates a new RFC 2136 provider instance.
func New(name string, config *dnsupdate.Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		name:   name,
		zone:   config.Zone,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	client, err := dnsupdate.NewClient(config, dnsupdate.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("creating dnsupdate client: %w", err)
	}
	p.client = client

	return p, nil
}

// Factory returns a provider.Factory creating RFC 2136 instances.
func Factory() provider.Factory {
	return func(name string, config map[string]string) (provider.Provider, error) {
		cfg, err := dnsupdate.LoadConfigFromMap(config)
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

// Type returns "rfc2136".
func (p *Provider) Type() string {
	return "rfc2136"
}

// Zone returns the configured DNS zone.
func (p *Provider) Zone() string {
	return p.zone
}

// Ping checks connectivity to the DNS server.
func (p *Provider) Ping(ctx context.Context) error {
	return provider.WrapError(p.name, "ping", p.client.Ping(ctx))
}

// List returns the content strings for (name, rtype).
func (p *Provider) List(ctx context.Context, name string, rtype provider.RecordType) ([]string, error) {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}

	contents, err := p.client.Query(ctx, name, qtype)
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}
	return contents, nil
}

// Create adds a record set with a single value.
func (p *Provider) Create(ctx context.Context, name string, rtype provider.RecordType, content string, ttl int) error {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return provider.WrapError(p.name, "create", err)
	}

	record := dnsupdate.Record{
		Name:    name,
		Type:    qtype,
		TTL:     uint32(ttl),
		Content: content,
	}
	if err := p.client.Insert(ctx, []dnsupdate.Record{record}); err != nil {
		return provider.WrapError(p.name, "create", err)
	}

	p.logger.Info("record created",
		slog.String("provider", p.name),
		slog.String("name", name),
		slog.String("type", string(rtype)),
	)
	return nil
}

// Update replaces the full record set with the given contents.
// RFC 2136 makes this atomic: remove-RRset and inserts share one message.
func (p *Provider) Update(ctx context.Context, name string, rtype provider.RecordType, contents []string, ttl int) error {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return provider.WrapError(p.name, "update", err)
	}

	if err := p.client.Replace(ctx, name, qtype, contents, uint32(ttl)); err != nil {
		return provider.WrapError(p.name, "update", err)
	}

	p.logger.Info("record updated",
		slog.String("provider", p.name),
		slog.String("name", name),
		slog.String("type", string(rtype)),
		slog.Int("values", len(contents)),
	)
	return nil
}

// Delete removes the record set. Absent record sets delete cleanly:
// RFC 2136 defines remove-RRset as a no-op when nothing matches.
func (p *Provider) Delete(ctx context.Context, name string, rtype provider.RecordType) error {
	qtype, err := dnsupdate.StringToType(string(rtype))
	if err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	if err := p.client.DeleteRRset(ctx, name, qtype); err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	p.logger.Info("record deleted",
		slog.String("provider", p.name),
		slog.String("name", name),
		slog.String("type", string(rtype)),
	)
	return nil
}

// Verify interface compliance at compile time.
var _ provider.Provider = (*Provider)(nil)
