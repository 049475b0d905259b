package toys

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// Suffixes reserved by the registry itself. Always answerable, with or
// without any data-backed service.
const (
	suffixHelp = "help"
	suffixIP   = "ip"
)

const (
	helpTTL = 60
	ipTTL   = 60
)

// Registry owns the suffix-to-service mapping and turns raw DNS
// questions into answer records. Register everything before the server
// starts accepting queries; after that the registry is read-only and
// safe for concurrent dispatch.
type Registry struct {
	domain       string
	domainLabels []string
	decode       DecodeLabel
	services     map[string]Service
	hits         map[string]*atomic.Uint64
}

// NewRegistry creates a registry serving under the given base domain.
// A nil decode falls back to DefaultDecodeLabel.
func NewRegistry(domain string, decode DecodeLabel) *Registry {
	if decode == nil {
		decode = DefaultDecodeLabel
	}
	r := &Registry{
		domain:   strings.TrimSuffix(strings.ToLower(domain), "."),
		decode:   decode,
		services: make(map[string]Service),
		hits:     make(map[string]*atomic.Uint64),
	}
	r.domainLabels = dns.SplitDomainName(r.domain)
	r.hits[suffixHelp] = new(atomic.Uint64)
	r.hits[suffixIP] = new(atomic.Uint64)
	return r
}

// Register binds a service to a query suffix. Registering a taken suffix,
// including the built-in help and ip suffixes, is a configuration error.
func (r *Registry) Register(suffix string, svc Service) error {
	suffix = strings.ToLower(suffix)
	if suffix == suffixHelp || suffix == suffixIP {
		return fmt.Errorf("%w: %q is a built-in", ErrDuplicateSuffix, suffix)
	}
	if _, exists := r.services[suffix]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSuffix, suffix)
	}
	r.services[suffix] = svc
	r.hits[suffix] = new(atomic.Uint64)
	logrus.WithField("suffix", suffix).Info("Registered service")
	return nil
}

func (r *Registry) known(suffix string) bool {
	if suffix == suffixHelp || suffix == suffixIP {
		return true
	}
	_, ok := r.services[suffix]
	return ok
}

// Suffixes lists every registered suffix, built-ins included, sorted.
func (r *Registry) Suffixes() []string {
	out := []string{suffixHelp, suffixIP}
	for suffix := range r.services {
		out = append(out, suffix)
	}
	sort.Strings(out)
	return out
}

// Hits returns a snapshot of per-suffix dispatch counts.
func (r *Registry) Hits() map[string]uint64 {
	out := make(map[string]uint64, len(r.hits))
	for suffix, n := range r.hits {
		out[suffix] = n.Load()
	}
	return out
}

// Dump returns the diagnostic snapshot of the service behind a suffix.
func (r *Registry) Dump(suffix string) ([]byte, error) {
	switch suffix {
	case suffixHelp:
		return []byte("help built-in - lists available services"), nil
	case suffixIP:
		return []byte("ip built-in - echoes the client address"), nil
	}
	svc, ok := r.services[suffix]
	if !ok {
		return nil, fmt.Errorf("no service registered for %q", suffix)
	}
	return svc.Dump()
}

// Dispatch answers one DNS question. ok is false when no service handles
// the name, which the caller should map to NXDOMAIN. Every per-query
// failure collapses to that same outcome; dispatch never fails loudly.
func (r *Registry) Dispatch(qname string, qtype uint16, client net.IP) ([]dns.RR, bool) {
	q, err := r.normalize(qname)
	if err != nil {
		return nil, false
	}

	var (
		values []Value
		ok     bool
	)
	switch q.Suffix {
	case suffixHelp:
		values, ok = r.helpValues(qtype)
	case suffixIP:
		values, ok = ipValues(client, qtype)
	default:
		svc := r.services[q.Suffix]
		values, ok = svc.Answer(q.Tokens, qtype)
	}
	if !ok {
		return nil, false
	}
	r.hits[q.Suffix].Add(1)

	return render(qname, qtype, values), true
}

// render translates answer values into resource records of the requested
// type. A value's IP is used only when it fits the question type; text
// always renders as TXT, which is what toy clients expect even for A
// lookups of text-only services.
func render(qname string, qtype uint16, values []Value) []dns.RR {
	var rrs []dns.RR
	for _, v := range values {
		hdr := dns.RR_Header{
			Name:  qname,
			Class: dns.ClassINET,
			Ttl:   v.TTL,
		}
		switch {
		case v.IP != nil && qtype == dns.TypeA && v.IP.To4() != nil:
			hdr.Rrtype = dns.TypeA
			rrs = append(rrs, &dns.A{Hdr: hdr, A: v.IP.To4()})
		case v.IP != nil && qtype == dns.TypeAAAA && v.IP.To4() == nil:
			hdr.Rrtype = dns.TypeAAAA
			rrs = append(rrs, &dns.AAAA{Hdr: hdr, AAAA: v.IP.To16()})
		case v.Text != "":
			hdr.Rrtype = dns.TypeTXT
			rrs = append(rrs, &dns.TXT{Hdr: hdr, Txt: splitTXT(v.Text)})
		}
	}
	return rrs
}

// splitTXT chunks a string into the 255-byte segments a TXT record allows.
func splitTXT(s string) []string {
	if len(s) <= 255 {
		return []string{s}
	}
	var parts []string
	for len(s) > 255 {
		parts = append(parts, s[:255])
		s = s[255:]
	}
	return append(parts, s)
}

// helpValues lists every service's usage lines, sorted by suffix so the
// output is stable across runs.
func (r *Registry) helpValues(qtype uint16) ([]Value, bool) {
	if qtype != dns.TypeTXT {
		return nil, false
	}

	values := []Value{{Text: "Welcome! Available DNS services:", TTL: helpTTL}}
	values = append(values,
		Value{Text: fmt.Sprintf("dig TXT ip.%s", r.domain), TTL: helpTTL},
		Value{Text: fmt.Sprintf("dig TXT help.%s", r.domain), TTL: helpTTL},
	)

	suffixes := make([]string, 0, len(r.services))
	for suffix := range r.services {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)

	for _, suffix := range suffixes {
		for _, line := range r.services[suffix].Help() {
			values = append(values, Value{Text: fmt.Sprintf(line, r.domain), TTL: helpTTL})
		}
	}
	return values, true
}

// ipValues echoes the client address: TXT always, A for IPv4 clients,
// AAAA for IPv6 clients.
func ipValues(client net.IP, qtype uint16) ([]Value, bool) {
	if client == nil {
		return nil, false
	}
	switch qtype {
	case dns.TypeTXT:
		return []Value{{Text: client.String(), TTL: ipTTL}}, true
	case dns.TypeA:
		if client.To4() == nil {
			return nil, false
		}
		return []Value{{IP: client, TTL: ipTTL}}, true
	case dns.TypeAAAA:
		if client.To4() != nil {
			return nil, false
		}
		return []Value{{IP: client, TTL: ipTTL}}, true
	}
	return nil, false
}
