package toys

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/devharshthakur/rdns.toys/geo"
)

const (
	geoTTL = 60

	// maxGeoAnswers keeps replies for common names ("springfield")
	// within typical UDP payload budgets.
	maxGeoAnswers = 5
)

// GeoService answers place-name, timezone and coordinate queries from
// the read-only geo index.
type GeoService struct {
	index *geo.Index
	now   func() time.Time
}

func NewGeoService(index *geo.Index) *GeoService {
	return &GeoService{index: index, now: time.Now}
}

func (s *GeoService) Answer(tokens []string, qtype uint16) ([]Value, bool) {
	if qtype != dns.TypeTXT && qtype != dns.TypeA {
		return nil, false
	}

	// "12.97,77.59" answers with the nearest known city. The dots in
	// the coordinates are label separators on the wire, so the pair
	// spans several tokens and has to be rejoined first.
	if lat, lon, ok := parseCoordinates(strings.Join(tokens, ".")); ok {
		loc, found := s.index.Nearest(lat, lon)
		if !found {
			return nil, false
		}
		return []Value{{Text: s.formatLocation(loc), TTL: geoTTL}}, true
	}

	locs, ok := s.index.Lookup(tokens)
	if !ok {
		return nil, false
	}
	if len(locs) > maxGeoAnswers {
		locs = locs[:maxGeoAnswers]
	}

	values := make([]Value, 0, len(locs))
	for _, loc := range locs {
		values = append(values, Value{Text: s.formatLocation(loc), TTL: geoTTL})
	}
	return values, true
}

func (s *GeoService) formatLocation(loc *geo.Location) string {
	return fmt.Sprintf("%s (%s) - Pop: %d, TZ: %s UTC%s, Lat: %.4f, Lon: %.4f, Geohash: %s",
		loc.CanonicalName,
		loc.CountryCode,
		loc.Population,
		loc.Timezone,
		s.utcOffset(loc.Timezone),
		loc.Latitude,
		loc.Longitude,
		loc.Geohash(),
	)
}

// utcOffset renders the zone's current UTC offset as "+05:30". An
// unloadable zone (dataset newer than the host tzdata) degrades to
// "+00:00" rather than dropping the answer.
func (s *GeoService) utcOffset(tz string) string {
	zone, err := time.LoadLocation(tz)
	if err != nil {
		return "+00:00"
	}
	_, offset := s.now().In(zone).Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, offset%3600/60)
}

func parseCoordinates(token string) (lat, lon float64, ok bool) {
	latStr, lonStr, found := strings.Cut(token, ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

func (s *GeoService) Help() []string {
	return []string{
		"dig TXT mumbai.geo.%s",
		"dig TXT london.uk.geo.%s",
		"dig TXT 12.97,77.59.geo.%s",
	}
}

func (s *GeoService) Dump() ([]byte, error) {
	return []byte(fmt.Sprintf("geo service: %d locations loaded", s.index.Count())), nil
}
