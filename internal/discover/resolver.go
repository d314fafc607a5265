package discover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Default resolver configuration.
const (
	// DefaultResolvConf is consulted for nameservers when none is given.
	DefaultResolvConf = "/etc/resolv.conf"

	// DefaultQueryTimeout bounds a single DNS exchange.
	DefaultQueryTimeout = 10 * time.Second

	// DefaultDNSPort is appended to server addresses without a port.
	DefaultDNSPort = "53"
)

// ErrNoNameservers is returned when no usable nameserver is configured.
var ErrNoNameservers = errors.New("no nameservers configured")

// UnicastResolver implements Resolver over plain unicast DNS queries.
type UnicastResolver struct {
	client  *dns.Client
	servers []string
	logger  *slog.Logger
}

// ResolverOption is a functional option for configuring the UnicastResolver.
type ResolverOption func(*UnicastResolver)

// WithResolverLogger sets a custom logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *UnicastResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithServer queries the given server (host or host:port) instead of the
// nameservers from resolv.conf.
func WithServer(server string) ResolverOption {
	return func(r *UnicastResolver) {
		if server != "" {
			r.servers = []string{ensurePort(server)}
		}
	}
}

// WithTimeout sets the per-exchange timeout.
func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *UnicastResolver) {
		if timeout > 0 {
			r.client.Timeout = timeout
		}
	}
}

// NewUnicastResolver creates a resolver. Without a WithServer option the
// nameservers are read from /etc/resolv.conf.
func NewUnicastResolver(opts ...ResolverOption) (*UnicastResolver, error) {
	r := &UnicastResolver{
		client: &dns.Client{Timeout: DefaultQueryTimeout},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.servers) == 0 {
		conf, err := dns.ClientConfigFromFile(DefaultResolvConf)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", DefaultResolvConf, err)
		}
		for _, ns := range conf.Servers {
			r.servers = append(r.servers, ensurePort(ns))
		}
	}

	if len(r.servers) == 0 {
		return nil, ErrNoNameservers
	}

	return r, nil
}

// Query resolves (name, qtype) against the configured nameservers, trying
// each in order until one answers. NXDOMAIN and empty answers both yield
// an empty slice with a nil error.
func (r *UnicastResolver) Query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	r.logger.Debug("querying",
		slog.String("name", name),
		slog.String("type", dns.TypeToString[qtype]),
	)

	var lastErr error
	for _, server := range r.servers {
		resp, rtt, err := r.exchangeWithContext(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("exchanging with %s: %w", server, err)
			continue
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
			r.logger.Debug("query answered",
				slog.String("server", server),
				slog.Duration("rtt", rtt),
				slog.Int("answers", len(resp.Answer)),
			)
			return resp.Answer, nil

		case dns.RcodeNameError:
			// NXDOMAIN is authoritative absence, not a transport failure.
			return nil, nil

		default:
			lastErr = fmt.Errorf("server %s returned %s", server, dns.RcodeToString[resp.Rcode])
		}
	}

	return nil, lastErr
}

// exchangeWithContext performs a DNS exchange with context support.
func (r *UnicastResolver) exchangeWithContext(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, time.Duration, error) {
	type result struct {
		resp *dns.Msg
		rtt  time.Duration
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		resp, rtt, err := r.client.Exchange(msg, server)
		ch <- result{resp, rtt, err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-ch:
		return res.resp, res.rtt, res.err
	}
}

// ensurePort appends the default DNS port when the address has none.
// Bare IPv6 literals are bracketed.
func ensurePort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, DefaultDNSPort)
}
