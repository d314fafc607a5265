package dnsupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Sentinel errors for RFC 2136 operations.
var (
	// ErrUpdateFailed is returned when the DNS UPDATE operation fails.
	ErrUpdateFailed = errors.New("dns update failed")

	// ErrAuthenticationFailed is returned when TSIG authentication fails.
	ErrAuthenticationFailed = errors.New("tsig authentication failed")

	// ErrConnectionFailed is returned when the connection to the DNS server fails.
	ErrConnectionFailed = errors.New("connection to dns server failed")

	// ErrZoneMismatch is returned when a record name doesn't match the configured zone.
	ErrZoneMismatch = errors.New("record name does not match configured zone")
)

// Client handles RFC 2136 Dynamic DNS updates.
type Client struct {
	config *Config
	tsig   *TSIG
	logger *slog.Logger

	mu        sync.RWMutex
	dnsClient *dns.Client
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the DNS update client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new RFC 2136 Dynamic DNS client with the given configuration.
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tsig, err := TSIGFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("invalid TSIG configuration: %w", err)
	}

	c := &Client{
		config: config,
		tsig:   tsig,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.dnsClient = &dns.Client{
		Timeout: config.GetTimeout(),
	}

	if config.UseTCP {
		c.dnsClient.Net = "tcp"
	} else {
		c.dnsClient.Net = "udp"
	}

	if tsig != nil {
		tsig.ApplyToClient(c.dnsClient)
	}

	c.logger.Debug("RFC 2136 client initialized",
		slog.String("server", config.GetServer()),
		slog.String("zone", config.Zone),
		slog.Bool("tsig", tsig != nil),
		slog.Bool("tcp", config.UseTCP),
	)

	return c, nil
}

// Ping verifies connectivity to the DNS server by querying the SOA record.
func (c *Client) Ping(ctx context.Context) error {
	msg := new(dns.Msg)
	msg.SetQuestion(c.config.Zone, dns.TypeSOA)
	msg.RecursionDesired = false

	c.logger.Debug("pinging DNS server",
		slog.String("server", c.config.GetServer()),
		slog.String("zone", c.config.Zone),
	)

	resp, rtt, err := c.exchangeWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if resp.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("%w: server returned %s", ErrConnectionFailed, dns.RcodeToString[resp.Rcode])
	}

	c.logger.Debug("DNS server ping successful",
		slog.Duration("rtt", rtt),
		slog.Int("answers", len(resp.Answer)),
	)

	return nil
}

// Query retrieves the rdata strings of all records of a type for a name.
// An absent name or type yields an empty slice, not an error.
func (c *Client) Query(ctx context.Context, name string, recordType uint16) ([]string, error) {
	fqdn := c.ensureFQDN(name)

	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, recordType)
	msg.RecursionDesired = false

	c.logger.Debug("querying DNS records",
		slog.String("name", fqdn),
		slog.String("type", dns.TypeToString[recordType]),
	)

	resp, _, err := c.exchangeWithContext(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("dns query failed: %w", err)
	}

	// NXDOMAIN means no records exist
	if resp.Rcode == dns.RcodeNameError {
		return []string{}, nil
	}

	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("dns query returned %s", dns.RcodeToString[resp.Rcode])
	}

	contents := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype != recordType {
			continue
		}
		content, err := ContentFromRR(rr)
		if err != nil {
			c.logger.Warn("failed to parse DNS record",
				slog.String("error", err.Error()),
				slog.String("rr", rr.String()),
			)
			continue
		}
		contents = append(contents, content)
	}

	c.logger.Debug("DNS query complete",
		slog.String("name", fqdn),
		slog.Int("count", len(contents)),
	)

	return contents, nil
}

// Insert adds records without touching existing ones.
func (c *Client) Insert(ctx context.Context, records []Record) error {
	rrs, err := c.toRRs(records)
	if err != nil {
		return err
	}

	msg := new(dns.Msg)
	msg.SetUpdate(c.config.Zone)
	msg.Insert(rrs)

	return c.sendUpdate(ctx, msg, "insert", len(rrs))
}

// Replace swaps the entire RRset for (name, recordType) with the given
// contents in one atomic UPDATE: remove-RRset followed by inserts.
func (c *Client) Replace(ctx context.Context, name string, recordType uint16, contents []string, ttl uint32) error {
	fqdn := c.ensureFQDN(name)
	if !c.isInZone(fqdn) {
		return fmt.Errorf("%w: %s not in zone %s", ErrZoneMismatch, fqdn, c.config.Zone)
	}

	records := make([]Record, len(contents))
	for i, content := range contents {
		records[i] = Record{Name: fqdn, Type: recordType, TTL: ttl, Content: content}
	}
	rrs, err := c.toRRs(records)
	if err != nil {
		return err
	}

	msg := new(dns.Msg)
	msg.SetUpdate(c.config.Zone)
	msg.RemoveRRset([]dns.RR{rrsetStub(fqdn, recordType)})
	msg.Insert(rrs)

	return c.sendUpdate(ctx, msg, "replace", len(rrs))
}

// DeleteRRset removes all records of a type for a name. Deleting an
// RRset that does not exist is a successful no-op per RFC 2136 §2.5.2.
func (c *Client) DeleteRRset(ctx context.Context, name string, recordType uint16) error {
	fqdn := c.ensureFQDN(name)
	if !c.isInZone(fqdn) {
		return fmt.Errorf("%w: %s not in zone %s", ErrZoneMismatch, fqdn, c.config.Zone)
	}

	msg := new(dns.Msg)
	msg.SetUpdate(c.config.Zone)
	msg.RemoveRRset([]dns.RR{rrsetStub(fqdn, recordType)})

	return c.sendUpdate(ctx, msg, "delete", 0)
}

// Zone returns the configured zone name.
func (c *Client) Zone() string {
	return c.config.Zone
}

// Server returns the configured server address.
func (c *Client) Server() string {
	return c.config.GetServer()
}

// sendUpdate signs, sends and checks one UPDATE message.
func (c *Client) sendUpdate(ctx context.Context, msg *dns.Msg, op string, count int) error {
	if c.tsig != nil {
		c.tsig.ApplyToMessage(msg)
	}

	c.logger.Debug("sending DNS update",
		slog.String("operation", op),
		slog.Int("records", count),
	)

	resp, _, err := c.exchangeWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	if err := c.checkResponse(resp); err != nil {
		return err
	}

	c.logger.Debug("DNS update applied",
		slog.String("operation", op),
	)

	return nil
}

// toRRs validates and converts records, checking zone membership.
func (c *Client) toRRs(records []Record) ([]dns.RR, error) {
	rrs := make([]dns.RR, 0, len(records))
	for _, record := range records {
		if record.Name == "" {
			return nil, errors.New("record name is required")
		}
		fqdn := c.ensureFQDN(record.Name)
		if !c.isInZone(fqdn) {
			return nil, fmt.Errorf("%w: %s not in zone %s", ErrZoneMismatch, fqdn, c.config.Zone)
		}

		record.Name = fqdn
		rr, err := record.ToRR()
		if err != nil {
			return nil, err
		}
		rrs = append(rrs, rr)
	}
	return rrs, nil
}

// exchangeWithContext performs DNS exchange with context support.
func (c *Client) exchangeWithContext(ctx context.Context, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	c.mu.RLock()
	client := c.dnsClient
	c.mu.RUnlock()

	type result struct {
		resp *dns.Msg
		rtt  time.Duration
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		resp, rtt, err := client.Exchange(msg, c.config.GetServer())
		ch <- result{resp, rtt, err}
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case r := <-ch:
		return r.resp, r.rtt, r.err
	}
}

// checkResponse checks the DNS response for errors.
func (c *Client) checkResponse(resp *dns.Msg) error {
	if resp == nil {
		return fmt.Errorf("%w: no response from server", ErrUpdateFailed)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return nil

	case dns.RcodeNotAuth:
		// Server is not authoritative or TSIG failed
		if resp.IsTsig() != nil {
			return fmt.Errorf("%w: %s", ErrAuthenticationFailed, dns.RcodeToString[resp.Rcode])
		}
		return fmt.Errorf("%w: server not authoritative for zone", ErrUpdateFailed)

	case dns.RcodeRefused:
		return fmt.Errorf("%w: update refused (check server policy or TSIG configuration)", ErrUpdateFailed)

	case dns.RcodeNotZone:
		return ErrZoneMismatch

	default:
		return fmt.Errorf("%w: %s", ErrUpdateFailed, dns.RcodeToString[resp.Rcode])
	}
}

// rrsetStub builds the ANY-class header record used by RemoveRRset.
func rrsetStub(fqdn string, recordType uint16) dns.RR {
	return &dns.ANY{
		Hdr: dns.RR_Header{
			Name:   fqdn,
			Rrtype: recordType,
			Class:  dns.ClassANY,
			Ttl:    0,
		},
	}
}

// ensureFQDN ensures the name ends with a dot.
func (c *Client) ensureFQDN(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// isInZone checks if a FQDN is within the configured zone.
func (c *Client) isInZone(fqdn string) bool {
	zone := c.config.Zone
	if !strings.HasSuffix(zone, ".") {
		zone += "."
	}
	return strings.HasSuffix(strings.ToLower(fqdn), strings.ToLower(zone))
}
