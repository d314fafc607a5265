package dnsupdate

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// Record is one resource record addressed by name and type, with its
// rdata in zone-file presentation format. Examples:
//
//	{Name: "host.example.com.", Type: dns.TypeA, Content: "192.0.2.1"}
//	{Name: "x._wireguard._udp.example.com.", Type: dns.TypeSRV, Content: "0 0 51820 x._wireguard._udp.example.com."}
//	{Name: "x._wireguard._udp.example.com.", Type: dns.TypeTXT, Content: `"txtvers=1" "pub=K"`}
type Record struct {
	Name    string
	Type    uint16
	TTL     uint32
	Content string
}

// TypeString returns the string representation of the record type.
func (r Record) TypeString() string {
	if name, ok := dns.TypeToString[r.Type]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", r.Type)
}

// ToRR converts the Record to a dns.RR by parsing its zone-file form.
func (r Record) ToRR() (dns.RR, error) {
	name := r.Name
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	zone := fmt.Sprintf("%s %d IN %s %s", name, r.TTL, r.TypeString(), r.Content)
	rr, err := dns.NewRR(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s record %q: %w", r.TypeString(), r.Content, err)
	}
	if rr == nil {
		return nil, fmt.Errorf("empty %s record", r.TypeString())
	}

	return rr, nil
}

// RecordFromRR creates a Record from a dns.RR.
// Only the record types wgdisco manages are supported.
func RecordFromRR(rr dns.RR) (Record, error) {
	header := rr.Header()
	record := Record{
		Name: header.Name,
		Type: header.Rrtype,
		TTL:  header.Ttl,
	}

	content, err := ContentFromRR(rr)
	if err != nil {
		return record, err
	}
	record.Content = content

	return record, nil
}

// ContentFromRR extracts the rdata of a resource record in zone-file
// presentation format.
func ContentFromRR(rr dns.RR) (string, error) {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String(), nil

	case *dns.AAAA:
		return v.AAAA.String(), nil

	case *dns.PTR:
		return v.Ptr, nil

	case *dns.SRV:
		return fmt.Sprintf("%d %d %d %s", v.Priority, v.Weight, v.Port, v.Target), nil

	case *dns.TXT:
		quoted := make([]string, len(v.Txt))
		for i, s := range v.Txt {
			quoted[i] = `"` + s + `"`
		}
		return strings.Join(quoted, " "), nil

	default:
		return "", fmt.Errorf("unsupported record type: %s", dns.TypeToString[rr.Header().Rrtype])
	}
}

// StringToType converts a record type string to its uint16 value.
func StringToType(s string) (uint16, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if t, ok := dns.StringToType[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown record type: %s", s)
}
