package toys

import (
	"net"

	"github.com/miekg/dns"
)

const piDigits = "3.141592653589793238462643383279502884197169"

// Pi never changes; cache accordingly.
const piTTL = 31536000

// PiService serves the constant in whichever shape the question asks
// for: digits as TXT, 3.141.59.27 as an A record, and the first 32 hex
// groups of digits as an AAAA record.
type PiService struct{}

func NewPiService() *PiService {
	return &PiService{}
}

func (s *PiService) Answer(tokens []string, qtype uint16) ([]Value, bool) {
	switch qtype {
	case dns.TypeTXT:
		return []Value{{Text: piDigits, TTL: piTTL}}, true
	case dns.TypeA:
		return []Value{{IP: net.IPv4(3, 141, 59, 27), TTL: piTTL}}, true
	case dns.TypeAAAA:
		return []Value{{IP: net.ParseIP("3141:5926:5358:9793:2384:6264:3383:2795"), TTL: piTTL}}, true
	}
	return nil, false
}

func (s *PiService) Help() []string {
	return []string{
		"dig TXT pi.%s",
		"dig A pi.%s",
	}
}

func (s *PiService) Dump() ([]byte, error) {
	return []byte(piDigits), nil
}
