package discover

import (
	"errors"
	"fmt"

	"gitlab.bluewillows.net/root/wgdisco/internal/dnssd"
)

// CardinalityError indicates a record set did not contain exactly one
// record. Discovery data is assumed small and authoritative, so a wrong
// count is surfaced loudly instead of being masked.
type CardinalityError struct {
	Name  string
	Type  string
	Count int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("expected exactly one %s record at %s, found %d", e.Type, e.Name, e.Count)
}

// IsCardinalityError returns true if the error is a cardinality violation.
func IsCardinalityError(err error) bool {
	var ce *CardinalityError
	return errors.As(err, &ce)
}

// failureKind maps a node validation error to a metrics label.
func failureKind(err error) string {
	switch {
	case IsCardinalityError(err):
		return "cardinality"
	case errors.Is(err, dnssd.ErrUnknownVersion):
		return "version"
	case errors.Is(err, dnssd.ErrMissingPublicKey), errors.Is(err, dnssd.ErrMalformedPair):
		return "txt_parse"
	default:
		return "query"
	}
}
