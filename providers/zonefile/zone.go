package zonefile

import (
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// zone is an in-memory representation of a parsed zone file.
// Record order is preserved so rewrites stay diffable.
type zone struct {
	origin  string
	records []dns.RR
}

// parseZone parses zone file data relative to the given origin.
func parseZone(data []byte, origin string) (*zone, error) {
	z := &zone{origin: dns.Fqdn(origin)}

	parser := dns.NewZoneParser(strings.NewReader(string(data)), z.origin, "")
	parser.SetIncludeAllowed(false)

	for rr, ok := parser.Next(); ok; rr, ok = parser.Next() {
		z.records = append(z.records, rr)
	}
	if err := parser.Err(); err != nil {
		return nil, fmt.Errorf("parsing zone %s: %w", origin, err)
	}

	return z, nil
}

// render serializes the zone back to zone file format.
// The SOA record is emitted first, as most servers expect.
func (z *zone) render() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "$ORIGIN %s\n", z.origin)

	for _, rr := range z.records {
		if _, ok := rr.(*dns.SOA); ok {
			b.WriteString(rr.String())
			b.WriteString("\n")
		}
	}
	for _, rr := range z.records {
		if _, ok := rr.(*dns.SOA); ok {
			continue
		}
		b.WriteString(rr.String())
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// bumpSerial increments the SOA serial using the YYYYMMDDnn convention
// when the current serial follows it, and plain increment otherwise.
// Zones without a SOA are left alone.
func (z *zone) bumpSerial(now time.Time) {
	for _, rr := range z.records {
		soa, ok := rr.(*dns.SOA)
		if !ok {
			continue
		}

		today := uint32(now.Year()*1000000 + int(now.Month())*10000 + now.Day()*100)
		if soa.Serial < today {
			soa.Serial = today + 1
		} else {
			soa.Serial++
		}
		return
	}
}

// find returns the records matching the owner name and type.
func (z *zone) find(name string, qtype uint16) []dns.RR {
	fqdn := dns.Fqdn(name)
	var out []dns.RR
	for _, rr := range z.records {
		if rr.Header().Rrtype == qtype && strings.EqualFold(rr.Header().Name, fqdn) {
			out = append(out, rr)
		}
	}
	return out
}

// remove drops all records matching the owner name and type and reports
// how many were removed.
func (z *zone) remove(name string, qtype uint16) int {
	fqdn := dns.Fqdn(name)
	kept := z.records[:0]
	removed := 0
	for _, rr := range z.records {
		if rr.Header().Rrtype == qtype && strings.EqualFold(rr.Header().Name, fqdn) {
			removed++
			continue
		}
		kept = append(kept, rr)
	}
	z.records = kept
	return removed
}

// add appends records to the zone.
func (z *zone) add(rrs ...dns.RR) {
	z.records = append(z.records, rrs...)
}
