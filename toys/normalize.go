package toys

import (
	"strings"

	"github.com/miekg/dns"
)

// Query is one normalized DNS question: the argument tokens to the left
// of the matched service suffix, in the order the client wrote them.
type Query struct {
	RawName string
	Tokens  []string
	Suffix  string
}

// DecodeLabel turns one wire-form label back into its literal text. The
// scheme is pluggable; see DefaultDecodeLabel.
type DecodeLabel func(string) string

// DefaultDecodeLabel handles the two escape forms clients actually send:
// standard DNS \DDD escapes (a label typed as "new york" arrives as
// "new\032york") and _XX hex placeholders for characters that are awkward
// to type in a hostname ("london_2fuk" means "london/uk").
func DefaultDecodeLabel(label string) string {
	return decodePlaceholders(unescapeDNS(label))
}

func unescapeDNS(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		// \DDD decimal escape
		if i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]) {
			n := int(s[i+1]-'0')*100 + int(s[i+2]-'0')*10 + int(s[i+3]-'0')
			if n < 256 {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		// \X literal escape
		b.WriteByte(s[i+1])
		i++
	}
	return b.String()
}

func decodePlaceholders(s string) string {
	if !strings.ContainsRune(s, '_') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && i+2 < len(s) {
			if hi, ok1 := hexVal(s[i+1]); ok1 {
				if lo, ok2 := hexVal(s[i+2]); ok2 {
					if c := hi<<4 | lo; needsPlaceholder(c) {
						b.WriteByte(c)
						i += 2
						continue
					}
				}
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// needsPlaceholder reports whether a byte is one a client would have had
// to escape: printable ASCII that is not a letter, digit or hyphen.
// Anything else ("_ba" in "foo_bar") is an ordinary underscore run, not
// an escape.
func needsPlaceholder(c byte) bool {
	if c < 0x20 || c > 0x7e {
		return false
	}
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
		return false
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// maxSuffixLabels bounds the right-to-left suffix scan. Service suffixes
// are one label today; two keeps room for names like "up.time".
const maxSuffixLabels = 2

// normalize splits a raw question name into tokens and a service suffix.
// The server's own base domain is stripped first, then the rightmost
// remaining labels are matched (longest first) against the known
// suffixes. Matching is case-insensitive; tokens come back lowercased
// and escape-decoded, preserving the client's left-to-right order.
func (r *Registry) normalize(rawName string) (Query, error) {
	labels := dns.SplitDomainName(rawName)
	if len(labels) == 0 {
		return Query{}, errNotHandled
	}

	labels = stripDomain(labels, r.domainLabels)

	for n := min(maxSuffixLabels, len(labels)); n > 0; n-- {
		suffix := strings.ToLower(strings.Join(labels[len(labels)-n:], "."))
		if !r.known(suffix) {
			continue
		}

		var tokens []string
		for _, label := range labels[:len(labels)-n] {
			token := strings.ToLower(r.decode(label))
			if token != "" {
				tokens = append(tokens, token)
			}
		}
		return Query{RawName: rawName, Tokens: tokens, Suffix: suffix}, nil
	}

	return Query{}, errNotHandled
}

// stripDomain drops the server's base domain labels from the right, when
// present. Queries that bypass the base domain (a client pointed straight
// at the server) are left intact.
func stripDomain(labels, domain []string) []string {
	if len(domain) == 0 || len(labels) <= len(domain) {
		return labels
	}
	tail := labels[len(labels)-len(domain):]
	for i := range domain {
		if !strings.EqualFold(tail[i], domain[i]) {
			return labels
		}
	}
	return labels[:len(labels)-len(domain)]
}
