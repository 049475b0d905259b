package toys

import (
	"math/rand"
	"regexp"
	"strconv"

	"github.com/miekg/dns"
)

const randomTTL = 1

var reRange = regexp.MustCompile(`^([0-9]+)-([0-9]+)$`)

// RandomService answers "MIN-MAX.random" with one uniform integer in
// [MIN, MAX].
type RandomService struct{}

func NewRandomService() *RandomService {
	return &RandomService{}
}

func (s *RandomService) Answer(tokens []string, qtype uint16) ([]Value, bool) {
	if qtype != dns.TypeTXT || len(tokens) != 1 {
		return nil, false
	}

	m := reRange.FindStringSubmatch(tokens[0])
	if m == nil {
		return nil, false
	}
	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	hi, err := strconv.Atoi(m[2])
	if err != nil || lo > hi {
		return nil, false
	}

	n := lo + rand.Intn(hi-lo+1)
	return []Value{{Text: strconv.Itoa(n), TTL: randomTTL}}, true
}

func (s *RandomService) Help() []string {
	return []string{"dig TXT 1-100.random.%s"}
}

func (s *RandomService) Dump() ([]byte, error) {
	return []byte("random service: uniform integer in MIN-MAX"), nil
}
