// Package provider defines the record mutation capability that all DNS
// backends must implement.
package provider

import "context"

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypePTR  RecordType = "PTR"
	RecordTypeSRV  RecordType = "SRV"
	RecordTypeTXT  RecordType = "TXT"
	RecordTypeA    RecordType = "A"
	RecordTypeAAAA RecordType = "AAAA"
)

// DefaultTTL is the TTL supplied on every create and update.
// TTL is write-only configuration: it is never read back or compared.
const DefaultTTL = 300

// Provider is the mutation capability for one DNS zone.
// Records are keyed by (name, type); a key maps to an ordered list of
// content strings in zone-file rdata format (e.g. "0 0 51820 host." for
// SRV, `"txtvers=1" "pub=..."` for TXT).
//
// Contract requirements every backend must satisfy:
//   - List of an absent key returns an empty slice and a nil error.
//   - Delete of an absent key is a successful no-op. Renounce depends on
//     this; backends whose API reports "not found" must swallow it.
//   - Update replaces the full content list for the key, never merges.
type Provider interface {
	// Name returns the provider instance name (e.g. "home-zone").
	Name() string

	// Type returns the provider type (e.g. "rfc2136", "cloudflare").
	Type() string

	// Ping checks connectivity to the provider.
	Ping(ctx context.Context) error

	// List returns the content strings currently stored for the key.
	List(ctx context.Context, name string, rtype RecordType) ([]string, error)

	// Create adds a new record set with a single content value.
	Create(ctx context.Context, name string, rtype RecordType, content string, ttl int) error

	// Update replaces the record set's content with the given values.
	Update(ctx context.Context, name string, rtype RecordType, contents []string, ttl int) error

	// Delete removes the entire record set for the key.
	Delete(ctx context.Context, name string, rtype RecordType) error
}
