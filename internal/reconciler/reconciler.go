// Package reconciler converges a DNS provider's record set for one
// advertised node to a desired state, using only the four primitives of
// the provider capability (list, create, update, delete).
//
// Mutations are applied sequentially and are not atomic across records:
// a failure partway through Announce or Renounce leaves the zone in a
// mixed state with no rollback. Re-running the same command converges it.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/wgdisco/internal/dnssd"
	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// Reconciler applies DNS-SD advertisements through a provider.
type Reconciler struct {
	provider provider.Provider
	domain   string
	ttl      int
	logger   *slog.Logger
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTTL overrides the TTL supplied on creates and updates.
func WithTTL(ttl int) Option {
	return func(r *Reconciler) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// New creates a Reconciler for one domain backed by the given provider.
func New(p provider.Provider, domain string, opts ...Option) *Reconciler {
	r := &Reconciler{
		provider: p,
		domain:   domain,
		ttl:      provider.DefaultTTL,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Announce converges the zone to advertise the given node. Records are
// written in a fixed order: PTR membership, SRV, A, AAAA, TXT. Optional
// addresses that are absent from the node clear any stale A/AAAA record.
func (r *Reconciler) Announce(ctx context.Context, node dnssd.AdvertisedNode) error {
	if err := validateNode(node); err != nil {
		return err
	}

	service := dnssd.ServiceName(r.domain)
	instance := dnssd.InstanceName(node.Hostname, r.domain)

	r.logger.Info("announcing node",
		slog.String("provider", r.provider.Name()),
		slog.String("instance", instance),
	)

	if err := r.addMember(ctx, service, provider.RecordTypePTR, instance); err != nil {
		return fmt.Errorf("registering PTR member: %w", err)
	}

	if err := r.set(ctx, instance, provider.RecordTypeSRV, dnssd.SRVContent(instance)); err != nil {
		return fmt.Errorf("setting SRV record: %w", err)
	}

	if node.IPv4Addr != "" {
		if err := r.set(ctx, instance, provider.RecordTypeA, node.IPv4Addr); err != nil {
			return fmt.Errorf("setting A record: %w", err)
		}
	} else {
		if err := r.clear(ctx, instance, provider.RecordTypeA); err != nil {
			return fmt.Errorf("clearing A record: %w", err)
		}
	}

	if node.IPv6Addr != "" {
		if err := r.set(ctx, instance, provider.RecordTypeAAAA, node.IPv6Addr); err != nil {
			return fmt.Errorf("setting AAAA record: %w", err)
		}
	} else {
		if err := r.clear(ctx, instance, provider.RecordTypeAAAA); err != nil {
			return fmt.Errorf("clearing AAAA record: %w", err)
		}
	}

	txt := dnssd.FormatTXT(node.PublicKey, node.Allowed)
	if err := r.set(ctx, instance, provider.RecordTypeTXT, txt); err != nil {
		return fmt.Errorf("setting TXT record: %w", err)
	}

	r.logger.Info("node announced",
		slog.String("provider", r.provider.Name()),
		slog.String("instance", instance),
	)

	return nil
}

// Renounce removes all records for a hostname. Renouncing a hostname that
// was never announced is a successful no-op: the PTR member is simply not
// found and the per-record deletes rely on the capability contract that
// delete-of-absent succeeds.
func (r *Reconciler) Renounce(ctx context.Context, hostname string) error {
	if hostname == "" {
		return errors.New("hostname is required")
	}

	service := dnssd.ServiceName(r.domain)
	instance := dnssd.InstanceName(hostname, r.domain)

	r.logger.Info("renouncing node",
		slog.String("provider", r.provider.Name()),
		slog.String("instance", instance),
	)

	if err := r.removeMember(ctx, service, provider.RecordTypePTR, instance); err != nil {
		return fmt.Errorf("removing PTR member: %w", err)
	}

	for _, rtype := range []provider.RecordType{
		provider.RecordTypeSRV,
		provider.RecordTypeA,
		provider.RecordTypeAAAA,
		provider.RecordTypeTXT,
	} {
		if err := r.clear(ctx, instance, rtype); err != nil {
			return fmt.Errorf("deleting %s record: %w", rtype, err)
		}
	}

	r.logger.Info("node renounced",
		slog.String("provider", r.provider.Name()),
		slog.String("instance", instance),
	)

	return nil
}

func validateNode(node dnssd.AdvertisedNode) error {
	if node.Hostname == "" {
		return errors.New("hostname is required")
	}
	if node.PublicKey == "" {
		return errors.New("public key is required")
	}
	return nil
}
