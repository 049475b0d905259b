package geo

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
)

// s2CellLevel gives roughly 10km x 10km cells at the equator, a good
// balance of precision and candidate-set size for nearest-city lookups.
const s2CellLevel = 10

// maxNearestDistance is ~100km in radians on the unit sphere. Coordinates
// further than this from every known city get no answer.
const maxNearestDistance = 0.0157

// reClean strips everything but lowercase letters so that "New York",
// "new york" and "newyork" all share one index key.
var reClean = regexp.MustCompile(`[^a-z]+`)

func cleanKey(s string) string {
	return reClean.ReplaceAllString(strings.ToLower(s), "")
}

// countryAliases maps common non-ISO country spellings to ISO 3166-1
// alpha-2 codes.
var countryAliases = map[string]string{
	"UK": "GB",
}

func canonicalCountry(s string) string {
	code := strings.ToUpper(s)
	if alias, ok := countryAliases[code]; ok {
		return alias
	}
	return code
}

// Index answers place-name, timezone and coordinate queries over a fixed
// set of locations. Built once at startup and never mutated, so it is safe
// for concurrent use without locking.
type Index struct {
	byName     map[string][]*Location
	byTimezone map[string][]*Location
	cellIndex  map[s2.CellID][]*Location
	count      int
}

// NewIndex builds the lookup tables. Entries sharing a key are ordered by
// population descending, ties broken by position in the source file.
func NewIndex(locations []*Location) *Index {
	ix := &Index{
		byName:     make(map[string][]*Location),
		byTimezone: make(map[string][]*Location),
		cellIndex:  make(map[s2.CellID][]*Location),
		count:      len(locations),
	}

	for _, loc := range locations {
		for _, key := range nameKeys(loc) {
			ix.byName[key] = append(ix.byName[key], loc)
		}

		tzKey := strings.ToLower(loc.Timezone)
		ix.byTimezone[tzKey] = append(ix.byTimezone[tzKey], loc)

		ll := s2.LatLngFromDegrees(loc.Latitude, loc.Longitude)
		cell := s2.CellIDFromLatLng(ll).Parent(s2CellLevel)
		ix.cellIndex[cell] = append(ix.cellIndex[cell], loc)
	}

	for _, locs := range ix.byName {
		sortByPopulation(locs)
	}
	for _, locs := range ix.byTimezone {
		sortByPopulation(locs)
	}

	return ix
}

// nameKeys returns the deduplicated index keys for one location: its ascii
// and canonical names, its plain-ASCII aliases, and the city part of its
// timezone id ("Asia/Kolkata" also answers to "kolkata").
func nameKeys(loc *Location) []string {
	var keys []string
	seen := make(map[string]bool)

	add := func(s string) {
		key := cleanKey(s)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}

	add(loc.ASCIIName)
	add(loc.CanonicalName)
	for _, alt := range loc.AlternateNames {
		if isASCII(alt) {
			add(alt)
		}
	}
	if _, city, ok := strings.Cut(loc.Timezone, "/"); ok {
		add(city)
	}

	return keys
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func sortByPopulation(locs []*Location) {
	sort.SliceStable(locs, func(i, j int) bool {
		return locs[i].Population > locs[j].Population
	})
}

// Count reports how many locations the index was built from.
func (ix *Index) Count() int {
	return ix.count
}

// Lookup resolves query tokens to matching locations, best first.
//
// A trailing two-letter alphabetic token ("london", "uk") or a "/cc"
// inside the last token ("london/uk") is a hard country filter: no
// candidate in that country means no match, even if the unfiltered name
// would have matched. A remaining "/" in the query ("asia/kolkata")
// switches to timezone-id lookup. A miss is a normal outcome, not an
// error.
func (ix *Index) Lookup(tokens []string) ([]*Location, bool) {
	if len(tokens) == 0 {
		return nil, false
	}

	country := ""
	rest := tokens
	if len(tokens) >= 2 {
		if last := tokens[len(tokens)-1]; isCountryToken(last) {
			country = canonicalCountry(last)
			rest = tokens[:len(tokens)-1]
		}
	}

	query := strings.Join(rest, " ")
	if country == "" {
		if place, cc, found := strings.Cut(query, "/"); found && isCountryToken(cc) {
			country = canonicalCountry(cc)
			query = place
		}
	}

	var locs []*Location
	if strings.Contains(query, "/") {
		locs = ix.byTimezone[strings.ToLower(strings.TrimSpace(query))]
	} else {
		locs = ix.byName[cleanKey(query)]
	}
	if len(locs) == 0 {
		return nil, false
	}

	if country != "" {
		var filtered []*Location
		for _, loc := range locs {
			if loc.CountryCode == country {
				filtered = append(filtered, loc)
			}
		}
		if len(filtered) == 0 {
			return nil, false
		}
		return filtered, true
	}

	return locs, true
}

func isCountryToken(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// Nearest returns the closest known city to the given coordinates, or
// false when the coordinates are invalid or more than ~100km from every
// city in the index.
func (ix *Index) Nearest(lat, lon float64) (*Location, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return nil, false
	}

	queryLL := s2.LatLngFromDegrees(lat, lon)
	queryCell := s2.CellIDFromLatLng(queryLL).Parent(s2CellLevel)

	var (
		best     *Location
		bestDist float64
	)
	for _, cell := range cellAndNeighbors(queryCell) {
		for _, loc := range ix.cellIndex[cell] {
			ll := s2.LatLngFromDegrees(loc.Latitude, loc.Longitude)
			dist := float64(queryLL.Distance(ll))
			switch {
			case best == nil, dist < bestDist:
				best, bestDist = loc, dist
			case dist == bestDist && loc.Population > best.Population:
				best = loc
			}
		}
	}

	if best == nil || bestDist > maxNearestDistance {
		return nil, false
	}
	return best, true
}

// cellAndNeighbors returns the given cell plus its edge and corner
// neighbors, enough to cover a point near a cell boundary.
func cellAndNeighbors(cell s2.CellID) []s2.CellID {
	cells := make([]s2.CellID, 0, 9)
	cells = append(cells, cell)

	edges := cell.EdgeNeighbors()
	cells = append(cells, edges[:]...)

	seen := make(map[s2.CellID]bool, 9)
	for _, c := range cells {
		seen[c] = true
	}
	for _, edge := range edges {
		for _, corner := range edge.EdgeNeighbors() {
			if !seen[corner] {
				seen[corner] = true
				cells = append(cells, corner)
			}
		}
	}
	return cells
}
