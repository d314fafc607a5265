package dnssd

import (
	"errors"
	"fmt"
	"strings"
)

// TXTVersion is the only txtvers value this tool understands.
const TXTVersion = "1"

// TXT parse errors.
var (
	// ErrUnknownVersion indicates txtvers was absent or not "1".
	ErrUnknownVersion = errors.New("unknown txtvers")

	// ErrMissingPublicKey indicates the TXT record had no pub field.
	ErrMissingPublicKey = errors.New("txt record has no pub field")

	// ErrMalformedPair indicates a TXT segment was not a key=value pair.
	ErrMalformedPair = errors.New("txt segment is not a key=value pair")
)

// TXTFields is the typed result of parsing an advertisement TXT record.
type TXTFields struct {
	Version   string
	PublicKey string
	Allowed   string
}

// FormatTXT returns the TXT rdata for an advertisement as a sequence of
// quoted key=value segments. The allowed list is omitted when empty.
func FormatTXT(publicKey, allowed string) string {
	segments := []string{
		"txtvers=" + TXTVersion,
		"pub=" + publicKey,
	}
	if allowed != "" {
		segments = append(segments, "allowed="+allowed)
	}

	quoted := make([]string, len(segments))
	for i, s := range segments {
		quoted[i] = `"` + s + `"`
	}
	return strings.Join(quoted, " ")
}

// ParseTXT parses the string segments of a TXT record into typed fields.
// Each segment must be a key=value pair (split once on "="). Unknown keys
// are ignored. Returns ErrUnknownVersion unless txtvers is exactly "1",
// and ErrMissingPublicKey if no pub field is present.
func ParseTXT(segments []string) (TXTFields, error) {
	var fields TXTFields
	seen := make(map[string]string, len(segments))

	for _, seg := range segments {
		key, value, ok := strings.Cut(seg, "=")
		if !ok {
			return TXTFields{}, fmt.Errorf("%w: %q", ErrMalformedPair, seg)
		}
		seen[key] = value
	}

	version, ok := seen["txtvers"]
	if !ok {
		return TXTFields{}, fmt.Errorf("%w: txtvers missing", ErrUnknownVersion)
	}
	if version != TXTVersion {
		return TXTFields{}, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}
	fields.Version = version

	pub, ok := seen["pub"]
	if !ok {
		return TXTFields{}, ErrMissingPublicKey
	}
	fields.PublicKey = pub

	fields.Allowed = seen["allowed"]

	return fields, nil
}
