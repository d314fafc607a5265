// Package dnsupdate implements RFC 2136 Dynamic DNS updates with optional
// TSIG (RFC 2845) authentication, built on github.com/miekg/dns.
//
// Records are addressed by (name, type) and carry their rdata in zone-file
// presentation format, which makes the package a direct transport for the
// provider capability: Replace swaps a whole RRset atomically in a single
// UPDATE message, and Delete removes an RRset whether or not it exists.
package dnsupdate
