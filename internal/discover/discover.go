// Package discover resolves DNS-SD advertisements back into WireGuard
// peer tuples. It walks PTR, SRV, TXT and A (or AAAA) records in sequence,
// validating cardinality and version at every step.
package discover

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/wgdisco/internal/dnssd"
	"gitlab.bluewillows.net/root/wgdisco/internal/metrics"
)

// Resolver is the DNS query capability consumed by the Discoverer.
// Query returns the answer records for (name, qtype). An empty answer
// with a nil error means the name or type does not exist.
type Resolver interface {
	Query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error)
}

// Peer is one discovered and validated node.
type Peer struct {
	// PublicKey is the pub= value from the TXT record.
	PublicKey string

	// Port is taken from the SRV record.
	Port uint16

	// Target is the SRV target name, under which the TXT and address
	// records were found. Kept verbatim as returned by the resolver.
	Target string

	// Address is the A (or AAAA) record content.
	Address string

	// Allowed is the allowed= value from the TXT record, if present.
	Allowed string
}

// String formats the peer as one discovery output line.
func (p Peer) String() string {
	return fmt.Sprintf("%s %d %s %s", p.PublicKey, p.Port, p.Target, p.Address)
}

// Discoverer walks the DNS-SD hierarchy for a domain.
type Discoverer struct {
	resolver    Resolver
	skipInvalid bool
	ipv6        bool
	logger      *slog.Logger
}

// Option is a functional option for configuring the Discoverer.
type Option func(*Discoverer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithSkipInvalid makes malformed nodes non-fatal: each is logged and
// skipped, and the healthy remainder is still returned. The default is
// fail-fast, where any malformed node aborts the whole run.
func WithSkipInvalid(skip bool) Option {
	return func(d *Discoverer) {
		d.skipInvalid = skip
	}
}

// WithIPv6 resolves AAAA records instead of A records for peer addresses.
func WithIPv6(ipv6 bool) Option {
	return func(d *Discoverer) {
		d.ipv6 = ipv6
	}
}

// New creates a Discoverer backed by the given resolver.
func New(resolver Resolver, opts ...Option) *Discoverer {
	d := &Discoverer{
		resolver: resolver,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Discover resolves all advertised nodes for a domain, in PTR-answer
// order. Each PTR target is resolved sequentially. In the default
// fail-fast mode any cardinality or version violation aborts the run
// before any result is returned.
func (d *Discoverer) Discover(ctx context.Context, domain string) ([]Peer, error) {
	service := dnssd.ServiceName(domain)

	answers, err := d.query(ctx, service, dns.TypePTR)
	if err != nil {
		return nil, fmt.Errorf("querying PTR %s: %w", service, err)
	}

	var targets []string
	for _, rr := range answers {
		if ptr, ok := rr.(*dns.PTR); ok {
			targets = append(targets, ptr.Ptr)
		}
	}

	d.logger.Debug("PTR targets resolved",
		slog.String("service", service),
		slog.Int("count", len(targets)),
	)

	peers := make([]Peer, 0, len(targets))
	for _, target := range targets {
		peer, err := d.resolveNode(ctx, target)
		if err != nil {
			metrics.RecordValidationFailure(failureKind(err))
			if d.skipInvalid {
				d.logger.Warn("skipping malformed node",
					slog.String("node", target),
					slog.String("error", err.Error()),
				)
				continue
			}
			return nil, fmt.Errorf("node %s: %w", target, err)
		}
		peers = append(peers, peer)
	}

	metrics.SetNodesDiscovered(len(peers))
	return peers, nil
}

// resolveNode resolves and validates one PTR target into a Peer.
// The SRV target, not the PTR target, names the TXT and address records.
func (d *Discoverer) resolveNode(ctx context.Context, target string) (Peer, error) {
	srvAnswers, err := d.query(ctx, target, dns.TypeSRV)
	if err != nil {
		return Peer{}, fmt.Errorf("querying SRV: %w", err)
	}

	var srvs []*dns.SRV
	for _, rr := range srvAnswers {
		if srv, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, srv)
		}
	}
	if len(srvs) != 1 {
		return Peer{}, &CardinalityError{Name: target, Type: "SRV", Count: len(srvs)}
	}
	srv := srvs[0]

	txtAnswers, err := d.query(ctx, srv.Target, dns.TypeTXT)
	if err != nil {
		return Peer{}, fmt.Errorf("querying TXT: %w", err)
	}

	var txts []*dns.TXT
	for _, rr := range txtAnswers {
		if txt, ok := rr.(*dns.TXT); ok {
			txts = append(txts, txt)
		}
	}
	if len(txts) != 1 {
		return Peer{}, &CardinalityError{Name: srv.Target, Type: "TXT", Count: len(txts)}
	}

	fields, err := dnssd.ParseTXT(txts[0].Txt)
	if err != nil {
		return Peer{}, fmt.Errorf("parsing TXT at %s: %w", srv.Target, err)
	}

	address, err := d.resolveAddress(ctx, srv.Target)
	if err != nil {
		return Peer{}, err
	}

	return Peer{
		PublicKey: fields.PublicKey,
		Port:      srv.Port,
		Target:    srv.Target,
		Address:   address,
		Allowed:   fields.Allowed,
	}, nil
}

// resolveAddress resolves the peer address at the SRV target: A by
// default, AAAA when IPv6 mode is enabled. Exactly one answer required.
func (d *Discoverer) resolveAddress(ctx context.Context, name string) (string, error) {
	qtype := uint16(dns.TypeA)
	typeName := "A"
	if d.ipv6 {
		qtype = dns.TypeAAAA
		typeName = "AAAA"
	}

	answers, err := d.query(ctx, name, qtype)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", typeName, err)
	}

	var addrs []string
	for _, rr := range answers {
		switch v := rr.(type) {
		case *dns.A:
			addrs = append(addrs, v.A.String())
		case *dns.AAAA:
			addrs = append(addrs, v.AAAA.String())
		}
	}
	if len(addrs) != 1 {
		return "", &CardinalityError{Name: name, Type: typeName, Count: len(addrs)}
	}

	return addrs[0], nil
}

func (d *Discoverer) query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	metrics.RecordQuery(dns.TypeToString[qtype])
	return d.resolver.Query(ctx, name, qtype)
}
