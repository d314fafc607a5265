// Package dnssd defines the DNS-SD (RFC 6763) naming scheme and wire
// formats used to advertise WireGuard endpoints.
//
// An advertised node is published as up to five records:
//
//	_wireguard._udp.{domain}            PTR  {hostname}._wireguard._udp.{domain}
//	{hostname}._wireguard._udp.{domain} SRV  0 0 51820 {hostname}._wireguard._udp.{domain}
//	{hostname}._wireguard._udp.{domain} TXT  "txtvers=1" "pub={key}" ["allowed={list}"]
//	{hostname}._wireguard._udp.{domain} A    {ipv4}   (optional)
//	{hostname}._wireguard._udp.{domain} AAAA {ipv6}   (optional)
package dnssd

import "fmt"

// ServiceLabel is the fixed DNS-SD service type for WireGuard tunnels.
const ServiceLabel = "_wireguard._udp"

// WireGuardPort is the port advertised in SRV records.
const WireGuardPort = 51820

// AdvertisedNode is the desired advertisement for one endpoint.
type AdvertisedNode struct {
	// Hostname is the service-discovery instance label (e.g. "node1").
	Hostname string

	// PublicKey is opaque key material. This layer does not validate
	// its format.
	PublicKey string

	// IPv4Addr and IPv6Addr are optional literal addresses. An empty
	// string means the corresponding A/AAAA record is cleared.
	IPv4Addr string
	IPv6Addr string

	// Allowed is an optional pre-formatted allowed-IPs list.
	Allowed string
}

// ServiceName returns the PTR record name for a domain:
// "_wireguard._udp.{domain}".
func ServiceName(domain string) string {
	return ServiceLabel + "." + domain
}

// InstanceName returns the canonical record name for a node:
// "{hostname}._wireguard._udp.{domain}".
func InstanceName(hostname, domain string) string {
	return hostname + "." + ServiceName(domain)
}

// SRVContent returns the SRV rdata for an instance: priority 0, weight 0,
// port 51820, target the instance name itself.
func SRVContent(target string) string {
	return fmt.Sprintf("0 0 %d %s", WireGuardPort, target)
}
