package cloudflare

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// Provider implements provider.Provider for Cloudflare DNS.
//
// The Cloudflare API has no transactional replace, so Update deletes the
// existing records and recreates the new set. A crash between the two
// phases leaves a partial record set that the next run repairs.
type Provider struct {
	name   string
	config *Config
	client *Client
	logger *slog.Logger

	mu     sync.Mutex
	zoneID string // resolved lazily, cached
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

// WithClient sets a custom API client (useful for testing).
func WithClient(client *Client) ProviderOption {
	return func(p *Provider) {
		p.client = client
	}
}

// New creates a new Cloudflare provider instance.
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
		zoneID: config.ZoneID,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = NewClient(config.Token, WithLogger(p.logger))
	}

	return p, nil
}

// Factory returns a provider.Factory creating Cloudflare instances.
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

// Type returns "cloudflare".
func (p *Provider) Type() string {
	return "cloudflare"
}

// Ping checks connectivity and token validity against the Cloudflare API.
func (p *Provider) Ping(ctx context.Context) error {
	return provider.WrapError(p.name, "ping", p.client.Ping(ctx))
}

// getZoneID returns the zone ID, resolving it by zone name on first use.
func (p *Provider) getZoneID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.zoneID != "" {
		return p.zoneID, nil
	}

	zoneID, err := p.client.GetZoneID(ctx, p.config.Zone)
	if err != nil {
		return "", err
	}
	p.zoneID = zoneID
	return zoneID, nil
}

// List returns the content strings for (name, rtype).
// An absent record set yields an empty slice, not an error.
func (p *Provider) List(ctx context.Context, name string, rtype provider.RecordType) ([]string, error) {
	zoneID, err := p.getZoneID(ctx)
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}

	records, err := p.client.FindRecords(ctx, zoneID, string(rtype), name)
	if err != nil {
		return nil, provider.WrapError(p.name, "list", err)
	}

	contents := make([]string, 0, len(records))
	for _, r := range records {
		contents = append(contents, r.Content)
	}
	return contents, nil
}

// Create adds a record set with a single value.
func (p *Provider) Create(ctx context.Context, name string, rtype provider.RecordType, content string, ttl int) error {
	zoneID, err := p.getZoneID(ctx)
	if err != nil {
		return provider.WrapError(p.name, "create", err)
	}

	if err := p.client.CreateRecord(ctx, zoneID, string(rtype), name, content, ttl, p.config.Proxied); err != nil {
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
// Existing records are deleted first, then the new values created.
func (p *Provider) Update(ctx context.Context, name string, rtype provider.RecordType, contents []string, ttl int) error {
	zoneID, err := p.getZoneID(ctx)
	if err != nil {
		return provider.WrapError(p.name, "update", err)
	}

	existing, err := p.client.FindRecords(ctx, zoneID, string(rtype), name)
	if err != nil {
		return provider.WrapError(p.name, "update", err)
	}

	for _, r := range existing {
		if err := p.client.DeleteRecord(ctx, zoneID, r.ID); err != nil {
			return provider.WrapError(p.name, "update", err)
		}
	}

	for _, content := range contents {
		if err := p.client.CreateRecord(ctx, zoneID, string(rtype), name, content, ttl, p.config.Proxied); err != nil {
			return provider.WrapError(p.name, "update", err)
		}
	}

	p.logger.Info("record updated",
		slog.String("provider", p.name),
		slog.String("name", name),
		slog.String("type", string(rtype)),
		slog.Int("values", len(contents)),
	)
	return nil
}

// Delete removes the record set. Deleting an absent set succeeds.
func (p *Provider) Delete(ctx context.Context, name string, rtype provider.RecordType) error {
	zoneID, err := p.getZoneID(ctx)
	if err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	records, err := p.client.FindRecords(ctx, zoneID, string(rtype), name)
	if err != nil {
		return provider.WrapError(p.name, "delete", err)
	}

	for _, r := range records {
		if err := p.client.DeleteRecord(ctx, zoneID, r.ID); err != nil {
			return provider.WrapError(p.name, "delete", err)
		}
	}

	p.logger.Info("record deleted",
		slog.String("provider", p.name),
		slog.String("name", name),
		slog.String("type", string(rtype)),
		slog.Int("removed", len(records)),
	)
	return nil
}

// Verify interface compliance at compile time.
var _ provider.Provider = (*Provider)(nil)
