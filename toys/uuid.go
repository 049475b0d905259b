package toys

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/miekg/dns"
)

const uuidTTL = 1

// UUIDService returns freshly generated v4 UUIDs. "5.uuid" asks for
// five; a bare "uuid" query returns one.
type UUIDService struct {
	maxResults int
}

func NewUUIDService(maxResults int) *UUIDService {
	if maxResults < 1 {
		maxResults = 1
	}
	return &UUIDService{maxResults: maxResults}
}

func (s *UUIDService) Answer(tokens []string, qtype uint16) ([]Value, bool) {
	if qtype != dns.TypeTXT {
		return nil, false
	}

	n := 1
	switch len(tokens) {
	case 0:
	case 1:
		parsed, err := strconv.Atoi(tokens[0])
		if err != nil || parsed < 1 || parsed > s.maxResults {
			return nil, false
		}
		n = parsed
	default:
		return nil, false
	}

	values := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		values = append(values, Value{Text: uuid.NewString(), TTL: uuidTTL})
	}
	return values, true
}

func (s *UUIDService) Help() []string {
	return []string{
		"dig TXT uuid.%s",
		"dig TXT 5.uuid.%s",
	}
}

func (s *UUIDService) Dump() ([]byte, error) {
	return []byte(fmt.Sprintf("uuid service: max %d per query", s.maxResults)), nil
}
