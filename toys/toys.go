// Package toys routes DNS question names to toy services. A query name
// like "mumbai.geo.example.com" is split into argument tokens ("mumbai")
// and a service suffix ("geo"); the matched service synthesizes the
// answer values.
package toys

import (
	"errors"
	"net"
)

// Value is one synthesized answer. The registry renders Values into
// resource records of the requested type: IP becomes an A/AAAA record
// when it matches the question type, Text becomes a TXT record.
type Value struct {
	Text string
	IP   net.IP
	TTL  uint32
}

// Service is the capability contract every toy implements.
//
// Answer returns the values for the given argument tokens and question
// type. ok is false when the service cannot answer this combination,
// which the registry collapses to NXDOMAIN. ok with an empty slice means
// a valid request that deliberately has no records. Implementations must
// be safe for concurrent use; any per-call randomness must not need
// external synchronization.
type Service interface {
	Answer(tokens []string, qtype uint16) (values []Value, ok bool)

	// Help returns example usage lines with a %s placeholder for the
	// server's base domain, shown by the help built-in.
	Help() []string

	// Dump returns a diagnostic snapshot for the admin server.
	Dump() ([]byte, error)
}

// ErrDuplicateSuffix is returned by Register when a suffix is already
// taken. Duplicate registration is a configuration error, fatal at
// startup.
var ErrDuplicateSuffix = errors.New("suffix already registered")

// errNotHandled is the internal normalizer failure. It never reaches a
// client as anything other than NXDOMAIN.
var errNotHandled = errors.New("query name not handled")
